package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique print job ID with the "job_" prefix
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewArtifactID generates a unique artifact ID with the "art_" prefix
// Format: art_<uuid>
func NewArtifactID() string {
	return "art_" + uuid.New().String()
}
