package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Print API
	mux.HandleFunc("/api/print/create", s.app.PrintHandler.CreateHandler)  // POST - submit a print job
	mux.HandleFunc("/api/print/status/", s.app.PrintHandler.StatusHandler) // GET /{id} - job snapshot, optional ?wait=
	mux.HandleFunc("/api/print/report/", s.app.PrintHandler.ReportHandler) // GET /{id} - download finished report
	mux.HandleFunc("/api/print/cancel/", s.app.PrintHandler.CancelHandler) // POST /{id} - request cancellation
	mux.HandleFunc("/api/print/pdf", s.app.PrintHandler.SyncPrintHandler)  // POST - synchronous submit and wait
	mux.HandleFunc("/api/layouts", s.app.PrintHandler.LayoutsHandler)      // GET - configured layouts

	// Legacy protocol for older clients
	mux.HandleFunc("/print-old/info.json", s.app.OldAPIHandler.InfoHandler)
	mux.HandleFunc("/print-old/create.json", s.app.OldAPIHandler.CreateHandler)
	mux.HandleFunc("/print-old/print.pdf", s.app.OldAPIHandler.PrintHandler)
	mux.HandleFunc("/print-old/", s.handleOldAPIRoutes)

	// Health check
	mux.HandleFunc("/health", s.healthHandler)

	return mux
}

// handleOldAPIRoutes dispatches the legacy printout path
func (s *Server) handleOldAPIRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, ".pdf.printout") {
		s.app.OldAPIHandler.PrintoutHandler(w, r)
		return
	}
	http.NotFound(w, r)
}

// healthHandler reports service liveness
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
