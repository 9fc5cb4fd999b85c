// -----------------------------------------------------------------------
// Layout Provider - loads named report templates from a directory
// -----------------------------------------------------------------------

package layouts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/charta/internal/models"
)

// Provider serves layout templates loaded once at startup. Layouts are
// immutable after loading, so lookups need no locking.
type Provider struct {
	layouts map[string]*models.LayoutConfig
	logger  arbor.ILogger
}

// NewProvider loads all *.yaml layout files from dir.
func NewProvider(dir string, logger arbor.ILogger) (*Provider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read layouts directory %s: %w", dir, err)
	}

	layouts := make(map[string]*models.LayoutConfig)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		layout, err := loadLayoutFile(path)
		if err != nil {
			return nil, err
		}

		if _, exists := layouts[layout.Name]; exists {
			return nil, fmt.Errorf("duplicate layout name %q in %s", layout.Name, path)
		}
		layouts[layout.Name] = layout

		logger.Debug().
			Str("layout", layout.Name).
			Str("file", name).
			Msg("Loaded layout template")
	}

	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layout templates found in %s", dir)
	}

	logger.Info().Int("count", len(layouts)).Str("dir", dir).Msg("Layout templates loaded")

	return &Provider{
		layouts: layouts,
		logger:  logger,
	}, nil
}

func loadLayoutFile(path string) (*models.LayoutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}

	var layout models.LayoutConfig
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}

	if layout.Name == "" {
		base := filepath.Base(path)
		layout.Name = strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
	}
	if layout.MapWidth <= 0 || layout.MapHeight <= 0 {
		return nil, fmt.Errorf("layout %s must declare positive map_width and map_height", path)
	}

	return &layout, nil
}

// Resolve returns the layout for name.
func (p *Provider) Resolve(name string) (*models.LayoutConfig, error) {
	layout, ok := p.layouts[name]
	if !ok {
		return nil, fmt.Errorf("layout %q: %w", name, models.ErrLayoutNotFound)
	}
	return layout, nil
}

// List returns all layouts sorted by name.
func (p *Provider) List() []*models.LayoutConfig {
	out := make([]*models.LayoutConfig, 0, len(p.layouts))
	for _, layout := range p.layouts {
		out = append(out, layout)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
