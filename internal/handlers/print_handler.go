// -----------------------------------------------------------------------
// Print Handler - asynchronous print API endpoints
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// PrintHandler handles print job API requests
type PrintHandler struct {
	printService interfaces.PrintService
	layouts      interfaces.LayoutProvider
	syncWait     time.Duration
	syncLimiter  *rate.Limiter
	logger       arbor.ILogger
}

// NewPrintHandler creates a new print handler. syncRate and syncBurst bound
// the synchronous print endpoint so slow renders cannot pile up handlers.
func NewPrintHandler(printService interfaces.PrintService, layouts interfaces.LayoutProvider, syncWait time.Duration, syncRate float64, syncBurst int, logger arbor.ILogger) *PrintHandler {
	if syncWait <= 0 {
		syncWait = 30 * time.Second
	}
	if syncRate <= 0 {
		syncRate = 2
	}
	if syncBurst < 1 {
		syncBurst = 1
	}
	return &PrintHandler{
		printService: printService,
		layouts:      layouts,
		syncWait:     syncWait,
		syncLimiter:  rate.NewLimiter(rate.Limit(syncRate), syncBurst),
		logger:       logger,
	}
}

// CreateHandler submits a print job
// POST /api/print/create
func (h *PrintHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var spec models.PrintSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	jobID, err := h.printService.Submit(r.Context(), &spec)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     jobID,
		"status_url": "/api/print/status/" + jobID,
		"report_url": "/api/print/report/" + jobID,
		"cancel_url": "/api/print/cancel/" + jobID,
	})
}

// StatusHandler returns a job snapshot
// GET /api/print/status/{id}?wait=10s
func (h *PrintHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/print/status/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "job id is required")
		return
	}

	// Optional long-poll: ?wait=10s blocks until terminal or timeout.
	var snap *models.JobSnapshot
	var err error
	if waitStr := r.URL.Query().Get("wait"); waitStr != "" {
		wait, parseErr := time.ParseDuration(waitStr)
		if parseErr != nil {
			WriteError(w, http.StatusBadRequest, "invalid wait duration")
			return
		}
		snap, err = h.printService.Await(r.Context(), jobID, wait)
	} else {
		snap, err = h.printService.Status(jobID)
	}
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, snap)
}

// ReportHandler streams the finished report
// GET /api/print/report/{id}
func (h *PrintHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/print/report/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "job id is required")
		return
	}

	artifact, err := h.printService.FetchResult(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	h.writeArtifact(w, jobID, artifact)
}

// CancelHandler requests cancellation of a job
// POST /api/print/cancel/{id}
func (h *PrintHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/print/cancel/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "job id is required")
		return
	}

	if err := h.printService.Cancel(jobID); err != nil {
		WriteServiceError(w, err)
		return
	}

	snap, err := h.printService.Status(jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, snap)
}

// SyncPrintHandler submits a job and waits for its result in one request
// POST /api/print/pdf
func (h *PrintHandler) SyncPrintHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if !h.syncLimiter.Allow() {
		WriteError(w, http.StatusTooManyRequests, "too many synchronous print requests, retry later")
		return
	}

	var spec models.PrintSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	jobID, err := h.printService.Submit(r.Context(), &spec)
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
		// Still rendering. Hand back the async handles instead of blocking
		// the connection further.
		WriteJSON(w, http.StatusAccepted, map[string]string{
			"job_id":     jobID,
			"status_url": "/api/print/status/" + jobID,
			"report_url": "/api/print/report/" + jobID,
		})
		return
	}

	artifact, err := h.printService.FetchResult(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	h.writeArtifact(w, jobID, artifact)
}

// LayoutsHandler lists the configured layouts
// GET /api/layouts
func (h *PrintHandler) LayoutsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	type layoutInfo struct {
		Name     string `json:"name"`
		Width    int    `json:"map_width"`
		Height   int    `json:"map_height"`
		Rotation bool   `json:"rotation"`
	}

	all := h.layouts.List()
	out := make([]layoutInfo, 0, len(all))
	for _, l := range all {
		out = append(out, layoutInfo{
			Name:     l.Name,
			Width:    l.MapWidth,
			Height:   l.MapHeight,
			Rotation: l.Rotation,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"layouts": out})
}

func (h *PrintHandler) writeArtifact(w http.ResponseWriter, jobID string, artifact *models.Artifact) {
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".pdf"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.Warn().Str("job_id", jobID).Err(err).Msg("Failed to stream report")
	}
}
