package server

import (
	"net/http"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// SheetHandler serves the loaded worksheet.
type SheetHandler struct {
	sheet SheetInfo
}

type sheetResponse struct {
	BookName        string      `json:"book_name"`
	Name            string      `json:"name"`
	Rows            int         `json:"rows"`
	Cols            int         `json:"cols"`
	SuggestedRange  string      `json:"suggested_range,omitempty"`
	TableCandidates []string    `json:"table_candidates"`
	PrintAreas      []string    `json:"print_areas"`
	Grid            models.Grid `json:"grid,omitempty"`
}

// GetSheet handles GET /v1/sheet. ?grid=true includes every cell.
func (h *SheetHandler) GetSheet(w http.ResponseWriter, r *http.Request) {
	data := h.sheet.Data
	resp := sheetResponse{
		BookName:        h.sheet.BookName,
		Name:            h.sheet.Name,
		Rows:            data.Grid.Rows(),
		Cols:            data.Grid.Width(),
		TableCandidates: formatRanges(data.TableCandidates),
		PrintAreas:      formatRanges(data.PrintAreas),
	}
	if rng, ok := data.SuggestedRange(); ok {
		resp.SuggestedRange = cellref.FormatRange(rng)
	}
	if r.URL.Query().Get("grid") == "true" {
		resp.Grid = data.Grid
	}
	writeJSON(w, http.StatusOK, resp)
}

func formatRanges(rs []models.Range) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, cellref.FormatRange(r))
	}
	return out
}
