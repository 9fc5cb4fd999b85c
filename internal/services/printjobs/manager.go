// -----------------------------------------------------------------------
// Job Manager - facade over validation, the registry, the pool and storage
// -----------------------------------------------------------------------

package printjobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// ManagerOptions configures the job manager.
type ManagerOptions struct {
	Workers       int
	QueueSize     int
	RenderTimeout time.Duration
	ShutdownGrace time.Duration
}

// Manager is the single entry point for the print job subsystem. All
// transports talk to it; nothing else touches the registry or the pool.
type Manager struct {
	validator interfaces.ValidationService
	renderer  interfaces.Renderer
	artifacts interfaces.ArtifactStorage
	registry  *Registry
	pool      *Pool
	opts      ManagerOptions
	logger    arbor.ILogger
}

// NewManager wires the job subsystem together and starts its workers.
func NewManager(
	validator interfaces.ValidationService,
	renderer interfaces.Renderer,
	artifacts interfaces.ArtifactStorage,
	opts ManagerOptions,
	logger arbor.ILogger,
) *Manager {
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 5 * time.Minute
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 30 * time.Second
	}

	m := &Manager{
		validator: validator,
		renderer:  renderer,
		artifacts: artifacts,
		registry:  NewRegistry(logger),
		opts:      opts,
		logger:    logger,
	}
	m.pool = NewPool(opts.Workers, opts.QueueSize, m.runJob, logger)
	return m
}

// Submit validates the spec, registers a job and admits it to the pool.
// Validation and capacity failures are returned synchronously; render
// failures surface later through the job's status.
func (m *Manager) Submit(ctx context.Context, spec *models.PrintSpec) (string, error) {
	validated, err := m.validator.Validate(spec)
	if err != nil {
		return "", err
	}

	snap := m.registry.Add(validated)

	if err := m.pool.Submit(snap.ID); err != nil {
		// The id never escaped, so the rolled-back job is unobservable.
		m.registry.Remove(snap.ID)
		m.logger.Warn().
			Str("layout", validated.Layout).
			Msg("Print job rejected, pool at capacity")
		return "", fmt.Errorf("submit print job: %w", err)
	}

	m.logger.Info().
		Str("job_id", snap.ID).
		Str("layout", validated.Layout).
		Msg("Print job submitted")

	return snap.ID, nil
}

// Status returns a snapshot of the job.
func (m *Manager) Status(jobID string) (*models.JobSnapshot, error) {
	return m.registry.Snapshot(jobID)
}

// Cancel requests cancellation of the job.
func (m *Manager) Cancel(jobID string) error {
	if err := m.registry.RequestCancel(jobID); err != nil {
		return err
	}
	m.logger.Info().Str("job_id", jobID).Msg("Print job cancellation requested")
	return nil
}

// Await blocks until the job settles or maxWait elapses.
func (m *Manager) Await(ctx context.Context, jobID string, maxWait time.Duration) (*models.JobSnapshot, error) {
	return m.registry.Await(ctx, jobID, maxWait)
}

// FetchResult returns the finished artifact for a DONE job. A known job
// in any other state yields a NotReadyError carrying that state.
func (m *Manager) FetchResult(ctx context.Context, jobID string) (*models.Artifact, error) {
	snap, err := m.registry.Snapshot(jobID)
	if err != nil {
		return nil, err
	}

	if snap.Status != models.JobStatusDone {
		return nil, &models.NotReadyError{Status: snap.Status}
	}

	artifact, err := m.artifacts.Get(ctx, snap.ArtifactRef)
	if err != nil {
		if errors.Is(err, models.ErrArtifactNotFound) {
			return nil, fmt.Errorf("job %s artifact expired: %w", jobID, err)
		}
		return nil, fmt.Errorf("fetch artifact for job %s: %w", jobID, err)
	}
	return artifact, nil
}

// Registry exposes the registry for the retention reaper.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Shutdown drains the pool within the configured grace period.
func (m *Manager) Shutdown() {
	m.pool.Shutdown(m.opts.ShutdownGrace)
}

// runJob is the pool's execution callback. It owns the full worker-side
// lifecycle: the pre-start cancellation checkpoint, the render, artifact
// persistence and the terminal transition.
func (m *Manager) runJob(baseCtx context.Context, jobID string) {
	spec, jobCtx, ok := m.registry.BeginRun(baseCtx, jobID)
	if !ok {
		// Cancelled before a worker picked it up. The renderer is never
		// invoked for such jobs.
		m.logger.Debug().Str("job_id", jobID).Msg("Skipping cancelled print job")
		return
	}

	renderCtx, cancel := context.WithTimeout(jobCtx, m.opts.RenderTimeout)
	defer cancel()

	started := time.Now()
	result, err := m.renderer.Render(renderCtx, spec)
	if err != nil {
		m.registry.MarkFailed(jobID, err.Error())
		m.logger.Warn().
			Str("job_id", jobID).
			Err(err).
			Msg("Print job render failed")
		return
	}

	ref, err := m.artifacts.Put(context.Background(), jobID, result.Data, result.ContentType)
	if err != nil {
		m.registry.MarkFailed(jobID, fmt.Sprintf("failed to store artifact: %v", err))
		m.logger.Error().
			Str("job_id", jobID).
			Err(err).
			Msg("Failed to store print artifact")
		return
	}

	if !m.registry.MarkDone(jobID, ref) {
		// Cancellation won while the render was in flight. The output is
		// discarded, never exposed.
		if delErr := m.artifacts.Delete(context.Background(), ref); delErr != nil {
			m.logger.Warn().
				Str("job_id", jobID).
				Err(delErr).
				Msg("Failed to discard artifact of cancelled job")
		}
		m.logger.Info().Str("job_id", jobID).Msg("Print job cancelled during render")
		return
	}

	m.logger.Info().
		Str("job_id", jobID).
		Str("artifact_ref", ref).
		Int("size_bytes", len(result.Data)).
		Str("duration", time.Since(started).String()).
		Msg("Print job completed")
}
