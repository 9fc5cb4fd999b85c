package models

import "time"

// JobStatus is the lifecycle state of a print job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusError     JobStatus = "error"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusDone, JobStatusError, JobStatusCancelled:
		return true
	}
	return false
}

// PrintJob is the registry's internal record for a submitted print request.
// All mutation goes through the registry; nothing outside it holds a
// reference to a live PrintJob.
type PrintJob struct {
	ID              string
	Status          JobStatus
	Spec            *ValidatedSpec
	SubmittedAt     time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ArtifactRef     string
	Error           string
	CancelRequested bool
}

// JobSnapshot is an immutable copy of a job's state handed to callers.
type JobSnapshot struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Layout      string     `json:"layout,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ArtifactRef string     `json:"artifact_ref,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Done reports whether the snapshot captured a terminal state.
func (s *JobSnapshot) Done() bool {
	return s.Status.IsTerminal()
}

// Elapsed returns the wall time between submission and completion, or the
// time since submission for a job still in flight.
func (s *JobSnapshot) Elapsed() time.Duration {
	if s.CompletedAt != nil {
		return s.CompletedAt.Sub(s.SubmittedAt)
	}
	return time.Since(s.SubmittedAt)
}

// Snapshot copies the job's observable state. The caller must hold the
// record's lock.
func (j *PrintJob) Snapshot() *JobSnapshot {
	snap := &JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		SubmittedAt: j.SubmittedAt,
		ArtifactRef: j.ArtifactRef,
		Error:       j.Error,
	}
	if j.Spec != nil {
		snap.Layout = j.Spec.Layout
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		snap.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		snap.CompletedAt = &t
	}
	return snap
}
