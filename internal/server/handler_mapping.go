package server

import (
	"net/http"

	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/mapping"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// MappingHandler serves column mapping proposal and confirmation.
type MappingHandler struct {
	session *bomscan.Session
}

type mappingResponse struct {
	Headers   []string               `json:"headers"`
	Proposed  models.ColumnMapping   `json:"proposed"`
	Confirmed *models.ColumnMapping  `json:"confirmed,omitempty"`
	Labels    map[models.Slot]string `json:"labels"`
}

// GetMapping handles GET /v1/mapping.
func (h *MappingHandler) GetMapping(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session.Range(); !ok {
		writeError(w, http.StatusConflict, "no range selected")
		return
	}
	headers := h.session.Headers()
	proposed := h.session.ProposedMapping()
	resp := mappingResponse{
		Headers:  headers,
		Proposed: proposed,
		Labels:   mapping.Describe(proposed, headers),
	}
	if m, ok := h.session.Mapping(); ok {
		resp.Confirmed = &m
		resp.Labels = mapping.Describe(m, headers)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ConfirmMapping handles POST /v1/mapping. The body is a slot -> column
// object; null or missing slots are unmapped.
func (h *MappingHandler) ConfirmMapping(w http.ResponseWriter, r *http.Request) {
	var m models.ColumnMapping
	if !decodeJSON(w, r, &m) {
		return
	}
	if err := h.session.ConfirmMapping(m); err != nil {
		writeDomainError(w, err)
		return
	}
	headers := h.session.Headers()
	writeJSON(w, http.StatusOK, mappingResponse{
		Headers:   headers,
		Proposed:  h.session.ProposedMapping(),
		Confirmed: &m,
		Labels:    mapping.Describe(m, headers),
	})
}
