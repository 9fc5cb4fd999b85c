// -----------------------------------------------------------------------
// Artifact Storage - persists finished print reports in BadgerDB
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// ArtifactStorage implements interfaces.ArtifactStorage on BadgerDB.
// Artifacts survive a restart even though job records do not.
type ArtifactStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ArtifactStorage = (*ArtifactStorage)(nil)

// NewArtifactStorage creates an artifact store on the given connection.
func NewArtifactStorage(db *BadgerDB, logger arbor.ILogger) *ArtifactStorage {
	return &ArtifactStorage{
		db:     db,
		logger: logger,
	}
}

// Put stores the report bytes and returns the artifact reference.
func (s *ArtifactStorage) Put(ctx context.Context, jobID string, data []byte, contentType string) (string, error) {
	artifact := &models.Artifact{
		ID:          common.NewArtifactID(),
		JobID:       jobID,
		Data:        data,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		CreatedAt:   time.Now(),
	}

	if err := s.db.Store().Insert(artifact.ID, artifact); err != nil {
		return "", fmt.Errorf("failed to store artifact for job %s: %w", jobID, err)
	}

	s.logger.Debug().
		Str("artifact_ref", artifact.ID).
		Str("job_id", jobID).
		Int64("size_bytes", artifact.SizeBytes).
		Msg("Artifact stored")

	return artifact.ID, nil
}

// Get returns the artifact for ref.
func (s *ArtifactStorage) Get(ctx context.Context, ref string) (*models.Artifact, error) {
	var artifact models.Artifact
	if err := s.db.Store().Get(ref, &artifact); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("artifact %s: %w", ref, models.ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", ref, err)
	}
	return &artifact, nil
}

// Delete removes the artifact for ref. Missing refs are not an error.
func (s *ArtifactStorage) Delete(ctx context.Context, ref string) error {
	err := s.db.Store().Delete(ref, &models.Artifact{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete artifact %s: %w", ref, err)
	}
	return nil
}

// Sweep removes artifacts created before the cutoff and returns the count.
func (s *ArtifactStorage) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	var expired []models.Artifact
	query := badgerhold.Where("CreatedAt").Lt(olderThan)

	if err := s.db.Store().Find(&expired, query); err != nil {
		return 0, fmt.Errorf("failed to find expired artifacts: %w", err)
	}

	removed := 0
	for _, artifact := range expired {
		if err := s.db.Store().Delete(artifact.ID, &models.Artifact{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return removed, fmt.Errorf("failed to delete expired artifact %s: %w", artifact.ID, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Expired artifacts swept")
	}
	return removed, nil
}

// Count returns the number of stored artifacts.
func (s *ArtifactStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Artifact{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count artifacts: %w", err)
	}
	return int(count), nil
}
