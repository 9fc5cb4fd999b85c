// -----------------------------------------------------------------------
// PDF Renderer - turns a validated print spec into a PDF report
// -----------------------------------------------------------------------

package renderer

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// PDFRenderer draws a report page per the validated spec: a title block,
// one annotated frame per map block and an attribute table. The output is
// validated with pdfcpu before it is returned.
type PDFRenderer struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.Renderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a new PDF renderer
func NewPDFRenderer(logger arbor.ILogger) *PDFRenderer {
	return &PDFRenderer{
		logger: logger,
	}
}

// Render generates the report. The context is checked between sections so
// a cancelled job stops without producing output.
func (r *PDFRenderer) Render(ctx context.Context, spec *models.ValidatedSpec) (*interfaces.RenderResult, error) {
	r.logger.Debug().
		Str("layout", spec.Layout).
		Int("maps", len(spec.Maps)).
		Int("dpi", spec.DPI).
		Msg("Rendering print spec")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render aborted: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	r.drawTitle(pdf, spec)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render aborted: %w", err)
	}

	for i, block := range spec.Maps {
		r.drawMapFrame(pdf, spec, i, block)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render aborted: %w", err)
		}
	}

	r.drawAttributeTable(pdf, spec.Attributes)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render aborted: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	if err := api.Validate(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("generated PDF failed validation: %w", err)
	}

	r.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated successfully")

	return &interfaces.RenderResult{
		Data:        buf.Bytes(),
		ContentType: spec.ContentType,
	}, nil
}

func (r *PDFRenderer) drawTitle(pdf *fpdf.Fpdf, spec *models.ValidatedSpec) {
	title := spec.Title
	if title == "" {
		title = spec.Layout
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	subtitle := fmt.Sprintf("Layout: %s   DPI: %d", spec.Layout, spec.DPI)
	if spec.SRS != "" {
		subtitle += "   SRS: " + spec.SRS
	}
	pdf.CellFormat(0, 6, subtitle, "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

// drawMapFrame draws a bordered placeholder frame for one map block,
// annotated with its scale, center and layer list. Fetching actual map
// tiles is the WMS client's job, not the report renderer's.
func (r *PDFRenderer) drawMapFrame(pdf *fpdf.Fpdf, spec *models.ValidatedSpec, index int, block models.MapBlock) {
	pageWidth := 190.0
	frameHeight := 70.0
	if spec.MapWidth > 0 && spec.MapHeight > 0 {
		frameHeight = pageWidth * float64(spec.MapHeight) / float64(spec.MapWidth)
		if frameHeight > 120 {
			frameHeight = 120
		}
	}

	startY := pdf.GetY()
	pdf.Rect(10, startY, pageWidth, frameHeight, "D")

	pdf.SetXY(12, startY+2)
	pdf.SetFont("Arial", "B", 9)
	label := fmt.Sprintf("Map %d", index+1)
	if block.Scale > 0 {
		label += fmt.Sprintf("   1:%.0f", block.Scale)
	}
	if len(block.Center) == 2 {
		label += fmt.Sprintf("   center %.4f, %.4f", block.Center[0], block.Center[1])
	}
	pdf.CellFormat(0, 5, label, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, layer := range block.Layers {
		pdf.SetX(12)
		line := strings.Join(layer.Layers, ", ")
		line += fmt.Sprintf("  (WMS %s", layer.Version)
		if layer.ImageFormat != "" {
			line += ", " + layer.ImageFormat
		}
		line += ")"
		pdf.CellFormat(0, 4, line, "", 1, "L", false, 0, "")
	}

	pdf.SetY(startY + frameHeight)
	pdf.Ln(4)
}

func (r *PDFRenderer) drawAttributeTable(pdf *fpdf.Fpdf, attributes map[string]interface{}) {
	if len(attributes) == 0 {
		return
	}

	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 6, "Attribute", "1", 0, "L", true, 0, "")
	pdf.CellFormat(130, 6, "Value", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(255, 255, 255)
	for _, k := range keys {
		pdf.CellFormat(60, 6, k, "1", 0, "L", false, 0, "")
		pdf.CellFormat(130, 6, fmt.Sprintf("%v", attributes[k]), "1", 1, "L", false, 0, "")
	}
}
