package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/charta/internal/models"
)

// ArtifactStorage persists finished report bytes keyed by an opaque ref.
type ArtifactStorage interface {
	// Put stores the artifact and returns its reference.
	Put(ctx context.Context, jobID string, data []byte, contentType string) (string, error)
	// Get returns the artifact for ref, or models.ErrArtifactNotFound.
	Get(ctx context.Context, ref string) (*models.Artifact, error)
	// Delete removes the artifact for ref. Deleting a missing ref is not an error.
	Delete(ctx context.Context, ref string) error
	// Sweep removes artifacts created before the cutoff and returns the count.
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
	// Count returns the number of stored artifacts.
	Count(ctx context.Context) (int, error)
}
