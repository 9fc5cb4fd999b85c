package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/charta/internal/models"
)

// fakeLayouts is a minimal layout provider for validator tests.
type fakeLayouts struct {
	layouts map[string]*models.LayoutConfig
}

func (f *fakeLayouts) Resolve(name string) (*models.LayoutConfig, error) {
	layout, ok := f.layouts[name]
	if !ok {
		return nil, fmt.Errorf("layout %q: %w", name, models.ErrLayoutNotFound)
	}
	return layout, nil
}

func (f *fakeLayouts) List() []*models.LayoutConfig {
	out := make([]*models.LayoutConfig, 0, len(f.layouts))
	for _, l := range f.layouts {
		out = append(out, l)
	}
	return out
}

func newTestService() *Service {
	return NewService(&fakeLayouts{
		layouts: map[string]*models.LayoutConfig{
			"A4 portrait": {
				Name:               "A4 portrait",
				MapWidth:           440,
				MapHeight:          483,
				RequiredAttributes: []string{"mapTitle"},
				AllowedFormats:     []string{"pdf"},
				AllowedDPIs:        []int{72, 150, 300},
			},
			"plain": {
				Name:      "plain",
				MapWidth:  802,
				MapHeight: 500,
			},
		},
	})
}

func validSpec() *models.PrintSpec {
	return &models.PrintSpec{
		Layout: "A4 portrait",
		Title:  "Test report",
		DPI:    150,
		SRS:    "EPSG:4326",
		Attributes: map[string]interface{}{
			"mapTitle": "Roads",
		},
		Maps: []models.MapBlock{
			{
				Center: []float64{151.2, -33.8},
				Scale:  25000,
				Layers: []models.WmsLayer{
					{
						BaseURL:     "http://wms.example.com/wms",
						Layers:      []string{"roads", "rivers"},
						Styles:      []string{"default", "blue"},
						ImageFormat: "png",
					},
				},
			},
		},
	}
}

func TestValidate_Normalizes(t *testing.T) {
	svc := newTestService()

	validated, err := svc.Validate(validSpec())
	require.NoError(t, err)

	assert.Equal(t, "A4 portrait", validated.Layout)
	assert.Equal(t, "pdf", validated.OutputFormat)
	assert.Equal(t, "application/pdf", validated.ContentType)
	assert.Equal(t, 150, validated.DPI)
	assert.Equal(t, 440, validated.MapWidth)
	assert.Equal(t, 483, validated.MapHeight)

	require.Len(t, validated.Maps, 1)
	layer := validated.Maps[0].Layers[0]
	assert.Equal(t, models.DefaultWmsVersion, layer.Version, "missing version gets the default")
	assert.Equal(t, "image/png", layer.ImageFormat, "short format token becomes a MIME type")
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	svc := newTestService()
	spec := validSpec()

	_, err := svc.Validate(spec)
	require.NoError(t, err)

	assert.Equal(t, "", spec.Maps[0].Layers[0].Version)
	assert.Equal(t, "png", spec.Maps[0].Layers[0].ImageFormat)
	assert.Equal(t, "", spec.OutputFormat)
}

func TestValidate_UnknownLayout(t *testing.T) {
	svc := newTestService()
	spec := validSpec()
	spec.Layout = "nope"

	_, err := svc.Validate(spec)
	ve, ok := models.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, models.ValidationMissingConfig, ve.Kind)
	assert.Equal(t, "layout", ve.Field)
}

func TestValidate_MissingRequiredAttribute(t *testing.T) {
	svc := newTestService()
	spec := validSpec()
	delete(spec.Attributes, "mapTitle")

	_, err := svc.Validate(spec)
	ve, ok := models.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, models.ValidationMissingConfig, ve.Kind)
	assert.Equal(t, "attributes.mapTitle", ve.Field)
}

func TestValidate_StylesLayersMismatch(t *testing.T) {
	svc := newTestService()
	spec := validSpec()
	spec.Maps[0].Layers[0].Styles = []string{"a", "b", "c"}

	_, err := svc.Validate(spec)
	ve, ok := models.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, models.ValidationParameterMismatch, ve.Kind)
}

func TestValidate_InvalidBaseURL(t *testing.T) {
	svc := newTestService()

	for _, bad := range []string{"not a url", "/relative/path", "://missing"} {
		spec := validSpec()
		spec.Maps[0].Layers[0].BaseURL = bad

		_, err := svc.Validate(spec)
		ve, ok := models.IsValidation(err)
		require.True(t, ok, "baseURL %q should be rejected", bad)
		assert.Equal(t, models.ValidationInvalidURI, ve.Kind)
	}
}

func TestValidate_UnknownWmsVersion(t *testing.T) {
	svc := newTestService()
	spec := validSpec()
	spec.Maps[0].Layers[0].Version = "2.0.0"

	_, err := svc.Validate(spec)
	ve, ok := models.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, models.ValidationUnknownEnumValue, ve.Kind)
}

func TestValidate_DPINotAllowed(t *testing.T) {
	svc := newTestService()
	spec := validSpec()
	spec.DPI = 9999

	_, err := svc.Validate(spec)
	ve, ok := models.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, models.ValidationUnknownEnumValue, ve.Kind)
	assert.Equal(t, "dpi", ve.Field)
}

func TestValidate_DefaultsWithoutRestrictions(t *testing.T) {
	svc := newTestService()
	spec := validSpec()
	spec.Layout = "plain"
	spec.DPI = 0
	spec.Attributes = nil

	validated, err := svc.Validate(spec)
	require.NoError(t, err)
	assert.Equal(t, 72, validated.DPI)
}

func TestValidate_MissingLayoutField(t *testing.T) {
	svc := newTestService()

	_, err := svc.Validate(&models.PrintSpec{})
	ve, ok := models.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, models.ValidationMissingConfig, ve.Kind)
}
