// -----------------------------------------------------------------------
// Old API Handler - legacy print protocol kept for older clients
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// OldAPIHandler serves the legacy protocol: info.json to discover layouts,
// create.json to start a print, and <id>.pdf.printout to collect it.
type OldAPIHandler struct {
	printService interfaces.PrintService
	layouts      interfaces.LayoutProvider
	prefix       string
	syncWait     time.Duration
	logger       arbor.ILogger
}

// NewOldAPIHandler creates a handler mounted at prefix (e.g. "/print-old").
func NewOldAPIHandler(printService interfaces.PrintService, layouts interfaces.LayoutProvider, prefix string, syncWait time.Duration, logger arbor.ILogger) *OldAPIHandler {
	if syncWait <= 0 {
		syncWait = 30 * time.Second
	}
	return &OldAPIHandler{
		printService: printService,
		layouts:      layouts,
		prefix:       strings.TrimSuffix(prefix, "/"),
		syncWait:     syncWait,
		logger:       logger,
	}
}

// legacySpec is the old protocol's request shape: layers are shared across
// pages, and each page carries its own center and scale.
type legacySpec struct {
	Layout       string                 `json:"layout"`
	Title        string                 `json:"title"`
	SRS          string                 `json:"srs"`
	DPI          int                    `json:"dpi"`
	OutputFormat string                 `json:"outputFormat"`
	Attributes   map[string]interface{} `json:"attributes"`
	Layers       []models.WmsLayer      `json:"layers"`
	Pages        []legacyPage           `json:"pages"`
}

type legacyPage struct {
	Center []float64 `json:"center"`
	Scale  float64   `json:"scale"`
}

// toPrintSpec translates the legacy shape onto the current one. Each page
// becomes a map block carrying the shared layer set.
func (l *legacySpec) toPrintSpec() *models.PrintSpec {
	spec := &models.PrintSpec{
		Layout:       l.Layout,
		Title:        l.Title,
		SRS:          l.SRS,
		DPI:          l.DPI,
		OutputFormat: l.OutputFormat,
		Attributes:   l.Attributes,
	}
	for _, page := range l.Pages {
		spec.Maps = append(spec.Maps, models.MapBlock{
			Center: page.Center,
			Scale:  page.Scale,
			Layers: l.Layers,
		})
	}
	if len(l.Pages) == 0 && len(l.Layers) > 0 {
		spec.Maps = append(spec.Maps, models.MapBlock{Layers: l.Layers})
	}
	return spec
}

// InfoHandler describes the service to legacy clients
// GET {prefix}/info.json
func (h *OldAPIHandler) InfoHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	type layoutMap struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	type layoutInfo struct {
		Name     string    `json:"name"`
		Map      layoutMap `json:"map"`
		Rotation bool      `json:"rotation"`
	}

	base := h.baseURL(r)
	all := h.layouts.List()
	layouts := make([]layoutInfo, 0, len(all))
	for _, l := range all {
		layouts = append(layouts, layoutInfo{
			Name:     l.Name,
			Map:      layoutMap{Width: l.MapWidth, Height: l.MapHeight},
			Rotation: l.Rotation,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"layouts":   layouts,
		"printURL":  base + "/print.pdf",
		"createURL": base + "/create.json",
	})
}

// CreateHandler starts a print and returns the collection URL
// POST {prefix}/create.json
func (h *OldAPIHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var legacy legacySpec
	if err := json.NewDecoder(r.Body).Decode(&legacy); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	jobID, err := h.printService.Submit(r.Context(), legacy.toPrintSpec())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"getURL": fmt.Sprintf("%s/%s.pdf.printout", h.baseURL(r), jobID),
	})
}

// PrintHandler renders synchronously for legacy clients
// POST {prefix}/print.pdf
func (h *OldAPIHandler) PrintHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var legacy legacySpec
	if err := json.NewDecoder(r.Body).Decode(&legacy); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	jobID, err := h.printService.Submit(r.Context(), legacy.toPrintSpec())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	snap, err := h.printService.Await(r.Context(), jobID, h.syncWait)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !snap.Done() {
		WriteError(w, http.StatusGatewayTimeout, "print did not finish in time")
		return
	}

	h.writePrintout(w, r, jobID)
}

// PrintoutHandler serves a finished report
// GET {prefix}/{id}.pdf.printout
func (h *OldAPIHandler) PrintoutHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, h.prefix+"/")
	jobID := strings.TrimSuffix(name, ".pdf.printout")
	if jobID == "" || jobID == name {
		WriteError(w, http.StatusNotFound, "unknown printout")
		return
	}

	h.writePrintout(w, r, jobID)
}

func (h *OldAPIHandler) writePrintout(w http.ResponseWriter, r *http.Request, jobID string) {
	artifact, err := h.printService.FetchResult(r.Context(), jobID)
	if err != nil {
		// The old protocol has no pending state on the fetch path; anything
		// not retrievable is a 404.
		if _, notReady := models.IsNotReady(err); notReady {
			WriteError(w, http.StatusNotFound, "printout not ready")
			return
		}
		WriteServiceError(w, err)
		return
	}

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.Warn().Str("job_id", jobID).Err(err).Msg("Failed to stream printout")
	}
}

func (h *OldAPIHandler) baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, h.prefix)
}
