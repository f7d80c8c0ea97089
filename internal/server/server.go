// Package server exposes a scan session over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukaji3/bomscan-go/internal/metrics"
	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// Archiver persists a finished session. *archive.Store satisfies it.
type Archiver interface {
	SaveSession(ctx context.Context, name string, summary models.Summary, records []models.ScanRecord) (string, error)
}

// SheetInfo describes the loaded worksheet.
type SheetInfo struct {
	BookName string
	Name     string
	Data     models.SheetData
}

// NewServer creates an HTTP server with all routes configured.
// archiver may be nil, which disables POST /v1/archive.
func NewServer(logger *slog.Logger, session *bomscan.Session, sheet SheetInfo, archiver Archiver) http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(logger))
	mux.Use(Recovery(logger))
	mux.Use(metrics.HTTP(sheet.Name))

	sheetHandler := &SheetHandler{sheet: sheet}
	selectionHandler := &SelectionHandler{session: session}
	mappingHandler := &MappingHandler{session: session}
	scanHandler := &ScanHandler{session: session, archiver: archiver, logger: logger}

	mux.Route("/v1", func(r chi.Router) {
		r.Get("/sheet", sheetHandler.GetSheet)

		r.Get("/selection", selectionHandler.GetSelection)
		r.Delete("/selection", selectionHandler.ClearSelection)
		r.Post("/selection/manual", selectionHandler.SetManual)
		r.Post("/selection/events", selectionHandler.PostEvents)
		r.Put("/selection/mode", selectionHandler.SetMode)

		r.Get("/mapping", mappingHandler.GetMapping)
		r.Post("/mapping", mappingHandler.ConfirmMapping)

		r.Post("/scans", scanHandler.Scan)
		r.Get("/scans", scanHandler.ListScans)
		r.Delete("/scans", scanHandler.ClearScans)
		r.Get("/export", scanHandler.Export)
		r.Post("/archive", scanHandler.Archive)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
