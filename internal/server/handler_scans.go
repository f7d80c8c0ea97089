package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/output"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ScanHandler ingests decoded values and serves the ledger.
type ScanHandler struct {
	session  *bomscan.Session
	archiver Archiver
	logger   *slog.Logger
	now      func() time.Time
}

type scanRequest struct {
	Value    *string        `json:"value"`
	Format   string         `json:"format"`
	Geometry *models.Bounds `json:"geometry"`
}

type scansResponse struct {
	Results []models.ScanRecord `json:"results"`
	Stats   models.Stats        `json:"stats"`
	Summary models.Summary      `json:"summary"`
}

type archiveRequest struct {
	Name string `json:"name"`
}

type archiveResponse struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Summary models.Summary `json:"summary"`
}

func (h *ScanHandler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// Scan handles POST /v1/scans. Matching never fails; an unmatched value
// still returns 200 with a not_found result.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	res := h.session.Scan(*req.Value, models.ScanDetails{Format: req.Format, Geometry: req.Geometry})
	writeJSON(w, http.StatusOK, res)
}

// ListScans handles GET /v1/scans, newest first.
func (h *ScanHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	l := h.session.Ledger()
	rows := l.DisplayRows()
	if rows == nil {
		rows = []models.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, scansResponse{
		Results: rows,
		Stats:   l.Stats(),
		Summary: l.Summary(h.clock()),
	})
}

// ClearScans handles DELETE /v1/scans.
func (h *ScanHandler) ClearScans(w http.ResponseWriter, r *http.Request) {
	h.session.Ledger().Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /v1/export?format=json|xlsx.
func (h *ScanHandler) Export(w http.ResponseWriter, r *http.Request) {
	l := h.session.Ledger()
	now := h.clock()
	rows := l.ExportRows()
	summary := l.Summary(now)
	stamp := now.Format("20060102-150405")

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		if rows == nil {
			rows = []models.ScanRecord{}
		}
		data, err := output.ToJSON(output.Export{ExportedAt: now, Results: rows, Summary: summary}, true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scan-results-%s.json"`, stamp))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case "xlsx":
		var buf bytes.Buffer
		rng, _ := h.session.Range()
		if err := output.WriteResultsXLSX(&buf, rows, summary, rng.StartRow); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scan-results-%s.xlsx"`, stamp))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown export format %q", format))
	}
}

// Archive handles POST /v1/archive.
func (h *ScanHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "archive is not configured")
		return
	}
	var req archiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	now := h.clock()
	if req.Name == "" {
		req.Name = "session " + now.Format(time.DateTime)
	}

	l := h.session.Ledger()
	summary := l.Summary(now)
	id, err := h.archiver.SaveSession(r.Context(), req.Name, summary, l.ExportRows())
	if err != nil {
		h.logger.Error("archive failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Info("session archived", "id", id, "scans", summary.TotalScanned)
	writeJSON(w, http.StatusCreated, archiveResponse{ID: id, Name: req.Name, Summary: summary})
}
