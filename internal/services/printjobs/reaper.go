// -----------------------------------------------------------------------
// Retention Reaper - scheduled cleanup of terminal jobs and old artifacts
// -----------------------------------------------------------------------

package printjobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
)

// RetentionPolicy controls how long terminal jobs and stored artifacts
// remain retrievable.
type RetentionPolicy struct {
	JobTTL      time.Duration
	ArtifactTTL time.Duration
	Schedule    string
}

// Reaper periodically removes terminal jobs past their TTL and artifacts
// past theirs. An empty schedule disables it.
type Reaper struct {
	registry  *Registry
	artifacts interfaces.ArtifactStorage
	policy    RetentionPolicy
	cron      *cron.Cron
	logger    arbor.ILogger
}

// NewReaper creates a reaper for the given registry and artifact store.
func NewReaper(registry *Registry, artifacts interfaces.ArtifactStorage, policy RetentionPolicy, logger arbor.ILogger) *Reaper {
	return &Reaper{
		registry:  registry,
		artifacts: artifacts,
		policy:    policy,
		logger:    logger,
	}
}

// Start schedules the retention sweep. Returns an error for a malformed
// schedule; an empty schedule is a silent no-op.
func (r *Reaper) Start() error {
	if r.policy.Schedule == "" {
		r.logger.Info().Msg("Retention sweep disabled")
		return nil
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.policy.Schedule, r.sweep); err != nil {
		return fmt.Errorf("invalid retention sweep schedule %q: %w", r.policy.Schedule, err)
	}
	r.cron.Start()

	r.logger.Info().
		Str("schedule", r.policy.Schedule).
		Str("job_ttl", r.policy.JobTTL.String()).
		Str("artifact_ttl", r.policy.ArtifactTTL.String()).
		Msg("Retention sweep scheduled")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	if r.cron != nil {
		ctx := r.cron.Stop()
		<-ctx.Done()
	}
}

// RunOnce performs a single sweep immediately.
func (r *Reaper) RunOnce() {
	r.sweep()
}

// sweep reaps terminal jobs past the job TTL and, separately, artifacts
// past the artifact TTL. The two retention windows are independent: an
// artifact may outlive its registry entry and vice versa.
func (r *Reaper) sweep() {
	now := time.Now()

	refs := r.registry.Sweep(now.Add(-r.policy.JobTTL))

	removed, err := r.artifacts.Sweep(context.Background(), now.Add(-r.policy.ArtifactTTL))
	if err != nil {
		r.logger.Warn().Err(err).Msg("Artifact retention sweep failed")
		return
	}

	if len(refs) > 0 || removed > 0 {
		r.logger.Info().
			Int("jobs_reaped", len(refs)).
			Int("artifacts_removed", removed).
			Msg("Retention sweep completed")
	}
}
