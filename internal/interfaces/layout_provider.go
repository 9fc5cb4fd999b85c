package interfaces

import "github.com/ternarybob/charta/internal/models"

// LayoutProvider resolves named report templates.
type LayoutProvider interface {
	// Resolve returns the layout for name, or models.ErrLayoutNotFound.
	Resolve(name string) (*models.LayoutConfig, error)
	// List returns all known layouts in name order.
	List() []*models.LayoutConfig
}
