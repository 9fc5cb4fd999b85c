package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/charta/internal/models"
)

// PrintService is the job subsystem facade exposed to transports.
type PrintService interface {
	// Submit validates the spec and enqueues a job, returning its id.
	// Rejections are synchronous: a *models.ValidationError for a bad spec,
	// models.ErrCapacityExceeded when the pool is saturated.
	Submit(ctx context.Context, spec *models.PrintSpec) (string, error)
	// Status returns a snapshot of the job, or models.ErrJobNotFound.
	Status(jobID string) (*models.JobSnapshot, error)
	// Cancel requests cancellation. It is a no-op on terminal jobs.
	Cancel(jobID string) error
	// Await blocks until the job reaches a terminal state or maxWait
	// elapses, returning the latest snapshot either way. maxWait <= 0
	// returns the current snapshot immediately.
	Await(ctx context.Context, jobID string, maxWait time.Duration) (*models.JobSnapshot, error)
	// FetchResult returns the finished artifact. A job that exists but is
	// not DONE yields a *models.NotReadyError.
	FetchResult(ctx context.Context, jobID string) (*models.Artifact, error)
}

// ValidationService checks a raw print spec against its layout and returns
// the normalized form. Validation never mutates its input.
type ValidationService interface {
	Validate(spec *models.PrintSpec) (*models.ValidatedSpec, error)
}
