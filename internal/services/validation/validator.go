// -----------------------------------------------------------------------
// Spec Validation - checks print specs against layouts and normalizes them
// -----------------------------------------------------------------------

package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// Service validates raw print specs against their named layout and produces
// the normalized form handed to the renderer. Validation has no side
// effects: the input spec is never mutated and no state is kept per call.
type Service struct {
	layouts  interfaces.LayoutProvider
	validate *validator.Validate
}

// NewService creates a validation service backed by the given layout provider.
func NewService(layouts interfaces.LayoutProvider) *Service {
	return &Service{
		layouts:  layouts,
		validate: validator.New(),
	}
}

// Validate checks the spec and returns its normalized form. All failures
// are *models.ValidationError values carrying the violated rule.
func (s *Service) Validate(spec *models.PrintSpec) (*models.ValidatedSpec, error) {
	if spec == nil {
		return nil, models.NewValidationError(models.ValidationMissingConfig, "spec", "print spec is required")
	}

	if err := s.validate.Struct(spec); err != nil {
		return nil, translateStructError(err)
	}

	layout, err := s.layouts.Resolve(spec.Layout)
	if err != nil {
		if errors.Is(err, models.ErrLayoutNotFound) {
			return nil, models.NewValidationError(models.ValidationMissingConfig, "layout", "layout %q is not configured", spec.Layout)
		}
		return nil, fmt.Errorf("failed to resolve layout %q: %w", spec.Layout, err)
	}

	for _, required := range layout.RequiredAttributes {
		if _, ok := spec.Attributes[required]; !ok {
			return nil, models.NewValidationError(models.ValidationMissingConfig, "attributes."+required,
				"layout %q requires attribute %q", layout.Name, required)
		}
	}

	outputFormat, contentType, err := normalizeOutputFormat(spec.OutputFormat, layout)
	if err != nil {
		return nil, err
	}

	dpi, err := normalizeDPI(spec.DPI, layout)
	if err != nil {
		return nil, err
	}

	maps := make([]models.MapBlock, 0, len(spec.Maps))
	for i, block := range spec.Maps {
		normalized, err := normalizeMapBlock(i, block)
		if err != nil {
			return nil, err
		}
		maps = append(maps, *normalized)
	}

	attributes := make(map[string]interface{}, len(spec.Attributes))
	for k, v := range spec.Attributes {
		attributes[k] = v
	}

	return &models.ValidatedSpec{
		Layout:       layout.Name,
		Title:        spec.Title,
		OutputFormat: outputFormat,
		ContentType:  contentType,
		DPI:          dpi,
		SRS:          spec.SRS,
		Attributes:   attributes,
		Maps:         maps,
		MapWidth:     layout.MapWidth,
		MapHeight:    layout.MapHeight,
	}, nil
}

// normalizeMapBlock validates one map frame and returns a copy with layer
// defaults filled in.
func normalizeMapBlock(index int, block models.MapBlock) (*models.MapBlock, error) {
	field := fmt.Sprintf("maps[%d]", index)

	if len(block.Layers) == 0 {
		return nil, models.NewValidationError(models.ValidationParameterMismatch, field+".layers",
			"map block must contain at least one layer")
	}

	layers := make([]models.WmsLayer, 0, len(block.Layers))
	for j, layer := range block.Layers {
		normalized, err := normalizeWmsLayer(fmt.Sprintf("%s.layers[%d]", field, j), layer)
		if err != nil {
			return nil, err
		}
		layers = append(layers, *normalized)
	}

	out := models.MapBlock{
		Scale:  block.Scale,
		Layers: layers,
	}
	if block.Center != nil {
		out.Center = append([]float64(nil), block.Center...)
	}
	return &out, nil
}

// normalizeWmsLayer applies the WMS layer rules: styles must line up with
// layers, the base URL must be an absolute URI, the protocol version must
// be one the renderer speaks, and short image format tokens become MIME
// types. Returns a new value; the input is untouched.
func normalizeWmsLayer(field string, layer models.WmsLayer) (*models.WmsLayer, error) {
	if len(layer.Layers) == 0 {
		return nil, models.NewValidationError(models.ValidationParameterMismatch, field+".layers",
			"layer must name at least one WMS layer")
	}

	if len(layer.Styles) > 0 && len(layer.Styles) != len(layer.Layers) {
		return nil, models.NewValidationError(models.ValidationParameterMismatch, field+".styles",
			"styles count (%d) must match layers count (%d)", len(layer.Styles), len(layer.Layers))
	}

	parsed, err := url.Parse(layer.BaseURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, models.NewValidationError(models.ValidationInvalidURI, field+".baseURL",
			"baseURL %q is not a valid absolute URI", layer.BaseURL)
	}

	version := layer.Version
	if version == "" {
		version = models.DefaultWmsVersion
	}
	if !models.KnownWmsVersions[version] {
		return nil, models.NewValidationError(models.ValidationUnknownEnumValue, field+".version",
			"unknown WMS version %q", layer.Version)
	}

	imageFormat := layer.ImageFormat
	if imageFormat != "" && !strings.HasPrefix(imageFormat, "image/") {
		imageFormat = "image/" + imageFormat
	}

	out := models.WmsLayer{
		BaseURL:     layer.BaseURL,
		Layers:      append([]string(nil), layer.Layers...),
		Version:     version,
		ImageFormat: imageFormat,
		Opacity:     layer.Opacity,
	}
	if len(layer.Styles) > 0 {
		out.Styles = append([]string(nil), layer.Styles...)
	}
	return &out, nil
}

// normalizeOutputFormat resolves the requested format against the layout's
// allowed set. An empty request defaults to pdf.
func normalizeOutputFormat(format string, layout *models.LayoutConfig) (string, string, error) {
	if format == "" {
		format = "pdf"
	}
	format = strings.ToLower(format)

	if len(layout.AllowedFormats) > 0 {
		allowed := false
		for _, f := range layout.AllowedFormats {
			if strings.EqualFold(f, format) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", "", models.NewValidationError(models.ValidationUnknownEnumValue, "outputFormat",
				"output format %q is not allowed by layout %q", format, layout.Name)
		}
	}

	contentType := "application/pdf"
	if format != "pdf" {
		contentType = "application/octet-stream"
	}
	return format, contentType, nil
}

// normalizeDPI resolves the requested DPI against the layout's allowed set.
// Zero means the layout's first allowed value, or 72 when unrestricted.
func normalizeDPI(dpi int, layout *models.LayoutConfig) (int, error) {
	if dpi == 0 {
		if len(layout.AllowedDPIs) > 0 {
			return layout.AllowedDPIs[0], nil
		}
		return 72, nil
	}

	if len(layout.AllowedDPIs) > 0 {
		for _, d := range layout.AllowedDPIs {
			if d == dpi {
				return dpi, nil
			}
		}
		return 0, models.NewValidationError(models.ValidationUnknownEnumValue, "dpi",
			"dpi %d is not allowed by layout %q", dpi, layout.Name)
	}
	return dpi, nil
}

// translateStructError maps validator tag failures onto the spec error
// taxonomy so transports see one error shape.
func translateStructError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError(models.ValidationMissingConfig, "spec", "%v", err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}

	switch fe.Tag() {
	case "required":
		return models.NewValidationError(models.ValidationMissingConfig, field, "field is required")
	case "min":
		return models.NewValidationError(models.ValidationParameterMismatch, field, "field needs at least %s entries", fe.Param())
	default:
		return models.NewValidationError(models.ValidationParameterMismatch, field, "failed %s constraint", fe.Tag())
	}
}
