package interfaces

import (
	"context"

	"github.com/ternarybob/charta/internal/models"
)

// RenderResult carries the produced report bytes and their content type.
type RenderResult struct {
	Data        []byte
	ContentType string
}

// Renderer produces a report from a validated print spec. Implementations
// should honor ctx cancellation; a renderer that ignores it simply has its
// completed output discarded when the job was cancelled mid-flight.
type Renderer interface {
	Render(ctx context.Context, spec *models.ValidatedSpec) (*RenderResult, error)
}
