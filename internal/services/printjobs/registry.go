// -----------------------------------------------------------------------
// Job Registry - lifecycle state machine for print jobs
// -----------------------------------------------------------------------

package printjobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/models"
)

// record pairs a job with its own lock and completion channel. Transitions
// for one job serialize on the record lock, never on the registry lock, so
// concurrent operations on distinct jobs do not contend.
type record struct {
	mu       sync.Mutex
	job      *models.PrintJob
	done     chan struct{}
	cancelFn context.CancelFunc
}

// Registry is the sole authority for job state transitions. The registry
// lock guards only the id map; all state changes happen under the record
// lock.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*record
	logger  arbor.ILogger
}

// NewRegistry creates an empty job registry.
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		records: make(map[string]*record),
		logger:  logger,
	}
}

// Add registers a new pending job.
func (r *Registry) Add(spec *models.ValidatedSpec) *models.JobSnapshot {
	job := &models.PrintJob{
		ID:          common.NewJobID(),
		Status:      models.JobStatusPending,
		Spec:        spec,
		SubmittedAt: time.Now(),
	}

	rec := &record{
		job:  job,
		done: make(chan struct{}),
	}

	r.mu.Lock()
	r.records[job.ID] = rec
	r.mu.Unlock()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return job.Snapshot()
}

func (r *Registry) get(id string) (*record, bool) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	return rec, ok
}

// Snapshot returns a consistent copy of the job's state.
func (r *Registry) Snapshot(id string) (*models.JobSnapshot, error) {
	rec, ok := r.get(id)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrJobNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job.Snapshot(), nil
}

// BeginRun transitions a pending job to running and returns the spec plus
// a context that RequestCancel will cancel. It returns ok=false when the
// job is no longer pending, which happens when cancellation won the race;
// the caller must then skip rendering entirely.
func (r *Registry) BeginRun(parent context.Context, id string) (*models.ValidatedSpec, context.Context, bool) {
	rec, ok := r.get(id)
	if !ok {
		return nil, nil, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != models.JobStatusPending {
		return nil, nil, false
	}

	now := time.Now()
	rec.job.Status = models.JobStatusRunning
	rec.job.StartedAt = &now

	ctx, cancel := context.WithCancel(parent)
	rec.cancelFn = cancel

	return rec.job.Spec, ctx, true
}

// MarkDone records a successful render. It returns false when a cancel
// request arrived while the job was running; the job then lands in
// CANCELLED and the caller must discard the artifact.
func (r *Registry) MarkDone(id string, artifactRef string) bool {
	rec, ok := r.get(id)
	if !ok {
		return false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != models.JobStatusRunning {
		return false
	}

	now := time.Now()
	rec.job.CompletedAt = &now
	rec.releaseCancelLocked()

	if rec.job.CancelRequested {
		rec.job.Status = models.JobStatusCancelled
		close(rec.done)
		return false
	}

	rec.job.Status = models.JobStatusDone
	rec.job.ArtifactRef = artifactRef
	close(rec.done)
	return true
}

// MarkFailed records a render failure. A job whose cancellation was
// requested lands in CANCELLED instead of ERROR, so a render aborted by
// context cancellation does not masquerade as a crash.
func (r *Registry) MarkFailed(id string, message string) {
	rec, ok := r.get(id)
	if !ok {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != models.JobStatusRunning {
		return
	}

	now := time.Now()
	rec.job.CompletedAt = &now
	rec.releaseCancelLocked()

	if rec.job.CancelRequested {
		rec.job.Status = models.JobStatusCancelled
	} else {
		rec.job.Status = models.JobStatusError
		rec.job.Error = message
	}
	close(rec.done)
}

// RequestCancel asks for the job to be cancelled. Pending jobs move to
// CANCELLED immediately; running jobs get their render context cancelled
// and settle when the worker reports completion. Cancelling a terminal
// job is a no-op.
func (r *Registry) RequestCancel(id string) error {
	rec, ok := r.get(id)
	if !ok {
		return fmt.Errorf("job %s: %w", id, models.ErrJobNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	switch rec.job.Status {
	case models.JobStatusPending:
		now := time.Now()
		rec.job.Status = models.JobStatusCancelled
		rec.job.CancelRequested = true
		rec.job.CompletedAt = &now
		close(rec.done)
	case models.JobStatusRunning:
		rec.job.CancelRequested = true
		if rec.cancelFn != nil {
			rec.cancelFn()
		}
	}
	return nil
}

// Remove drops a job from the registry. Used to roll back a submission
// the pool refused, before any caller could observe the id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.records, id)
	r.mu.Unlock()
}

// Await blocks until the job reaches a terminal state, maxWait elapses, or
// ctx is cancelled, and returns the latest snapshot. maxWait <= 0 returns
// the current snapshot without blocking.
func (r *Registry) Await(ctx context.Context, id string, maxWait time.Duration) (*models.JobSnapshot, error) {
	rec, ok := r.get(id)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrJobNotFound)
	}

	if maxWait <= 0 {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.job.Snapshot(), nil
	}

	timer := time.NewTimer(maxWait)
	defer timer.Stop()

	select {
	case <-rec.done:
	case <-timer.C:
	case <-ctx.Done():
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job.Snapshot(), nil
}

// Sweep removes terminal jobs that completed before the cutoff and returns
// the artifact refs of the removed jobs.
func (r *Registry) Sweep(olderThan time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var refs []string
	for id, rec := range r.records {
		rec.mu.Lock()
		expired := rec.job.Status.IsTerminal() &&
			rec.job.CompletedAt != nil &&
			rec.job.CompletedAt.Before(olderThan)
		ref := rec.job.ArtifactRef
		rec.mu.Unlock()

		if expired {
			delete(r.records, id)
			if ref != "" {
				refs = append(refs, ref)
			}
			r.logger.Debug().Str("job_id", id).Msg("Reaped terminal job")
		}
	}
	return refs
}

// Count returns the number of tracked jobs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// releaseCancelLocked drops the render cancel func so the context is not
// held after completion. Caller holds the record lock.
func (rec *record) releaseCancelLocked() {
	if rec.cancelFn != nil {
		rec.cancelFn()
		rec.cancelFn = nil
	}
}
