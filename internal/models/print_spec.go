package models

import "time"

// PrintSpec is the client-facing print request as submitted. It is never
// mutated after submission; validation produces a separate ValidatedSpec.
type PrintSpec struct {
	Layout       string                 `json:"layout" validate:"required"`
	Title        string                 `json:"title,omitempty"`
	OutputFormat string                 `json:"outputFormat,omitempty"`
	DPI          int                    `json:"dpi,omitempty"`
	SRS          string                 `json:"srs,omitempty"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
	Maps         []MapBlock             `json:"maps,omitempty"`
}

// MapBlock describes one map frame on the report.
type MapBlock struct {
	Center []float64  `json:"center,omitempty"`
	Scale  float64    `json:"scale,omitempty"`
	Layers []WmsLayer `json:"layers" validate:"required,min=1,dive"`
}

// WmsLayer holds the request parameters for one WMS layer.
type WmsLayer struct {
	BaseURL     string   `json:"baseURL" validate:"required"`
	Layers      []string `json:"layers" validate:"required,min=1"`
	Styles      []string `json:"styles,omitempty"`
	Version     string   `json:"version,omitempty"`
	ImageFormat string   `json:"imageFormat,omitempty"`
	Opacity     float64  `json:"opacity,omitempty"`
}

// KnownWmsVersions lists the WMS protocol versions the renderer speaks.
var KnownWmsVersions = map[string]bool{
	"1.0.0": true,
	"1.1.0": true,
	"1.1.1": true,
	"1.3.0": true,
}

// DefaultWmsVersion is applied when a layer omits its version.
const DefaultWmsVersion = "1.1.1"

// ValidatedSpec is the normalized output of validation. Defaults are filled
// in, formats are canonical MIME types, and every field has been checked
// against the resolved layout.
type ValidatedSpec struct {
	Layout       string
	Title        string
	OutputFormat string
	ContentType  string
	DPI          int
	SRS          string
	Attributes   map[string]interface{}
	Maps         []MapBlock
	MapWidth     int
	MapHeight    int
}

// LayoutConfig is a named report template loaded from the layouts directory.
type LayoutConfig struct {
	Name               string   `yaml:"name"`
	MapWidth           int      `yaml:"map_width"`
	MapHeight          int      `yaml:"map_height"`
	Rotation           bool     `yaml:"rotation"`
	RequiredAttributes []string `yaml:"required_attributes"`
	AllowedFormats     []string `yaml:"allowed_formats"`
	AllowedDPIs        []int    `yaml:"allowed_dpis"`
}

// Artifact is a finished report stored for retrieval.
type Artifact struct {
	ID          string `badgerhold:"key"`
	JobID       string
	Data        []byte
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}
