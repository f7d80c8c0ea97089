package server

import (
	"fmt"
	"net/http"

	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/selection"
)

// SelectionHandler drives the session's range selector.
type SelectionHandler struct {
	session *bomscan.Session
}

type selectionResponse struct {
	State   string               `json:"state"`
	Mode    string               `json:"mode"`
	Range   *models.Range        `json:"range,omitempty"`
	Ref     string               `json:"ref,omitempty"`
	Anchor  *models.CellPosition `json:"anchor,omitempty"`
	Preview *models.Range        `json:"preview,omitempty"`
}

type manualRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// selectionEvent is one gesture event from a remote grid view.
type selectionEvent struct {
	Type       string  `json:"type"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	ButtonHeld bool    `json:"button_held"`
}

type eventsRequest struct {
	Events []selectionEvent `json:"events"`
}

var eventHandlers = map[string]func(s *selection.Selector, ev selectionEvent){
	"begin":         func(s *selection.Selector, ev selectionEvent) { s.BeginSelection(ev.pos()) },
	"hover":         func(s *selection.Selector, ev selectionEvent) { s.UpdateHover(ev.pos()) },
	"finalize":      func(s *selection.Selector, ev selectionEvent) { s.FinalizeSelection(ev.pos()) },
	"clear":         func(s *selection.Selector, ev selectionEvent) { s.Clear() },
	"pointer_down":  func(s *selection.Selector, ev selectionEvent) { s.PointerDown(ev.pos()) },
	"pointer_enter": func(s *selection.Selector, ev selectionEvent) { s.PointerEnter(ev.pos()) },
	"pointer_up":    func(s *selection.Selector, ev selectionEvent) { s.PointerUp(ev.pos()) },
	"pointer_leave": func(s *selection.Selector, ev selectionEvent) { s.PointerLeave(ev.ButtonHeld) },
	"click":         func(s *selection.Selector, ev selectionEvent) { s.Click(ev.pos()) },
	"touch_start":   func(s *selection.Selector, ev selectionEvent) { s.TouchStart(ev.pos(), ev.point()) },
	"touch_move":    func(s *selection.Selector, ev selectionEvent) { s.TouchMove(ev.pos(), ev.point()) },
	"touch_end":     func(s *selection.Selector, ev selectionEvent) { s.TouchEnd(ev.pos(), ev.point()) },
}

func (ev selectionEvent) pos() models.CellPosition {
	return models.CellPosition{Row: ev.Row, Col: ev.Col}
}

func (ev selectionEvent) point() selection.Point {
	return selection.Point{X: ev.X, Y: ev.Y}
}

func (h *SelectionHandler) view() selectionResponse {
	sel := h.session.Selector()
	resp := selectionResponse{
		State: sel.State().String(),
		Mode:  sel.Mode().String(),
	}
	if rng, ok := sel.Range(); ok {
		resp.Range = &rng
		resp.Ref = cellref.FormatRange(rng)
	}
	if anchor, ok := sel.Anchor(); ok {
		resp.Anchor = &anchor
	}
	if preview, ok := sel.Preview(); ok {
		resp.Preview = &preview
	}
	return resp
}

// GetSelection handles GET /v1/selection.
func (h *SelectionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view())
}

// ClearSelection handles DELETE /v1/selection.
func (h *SelectionHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.session.Selector().Clear()
	writeJSON(w, http.StatusOK, h.view())
}

// SetManual handles POST /v1/selection/manual.
func (h *SelectionHandler) SetManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.Selector().SetManual(req.Start, req.End); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

// SetMode handles PUT /v1/selection/mode.
func (h *SelectionHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := selection.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.session.Selector().SetMode(mode)
	writeJSON(w, http.StatusOK, h.view())
}

// PostEvents handles POST /v1/selection/events. Events are validated as a
// batch and then applied in order.
func (h *SelectionHandler) PostEvents(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for i, ev := range req.Events {
		if _, ok := eventHandlers[ev.Type]; !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("event %d: unknown type %q", i, ev.Type))
			return
		}
	}

	sel := h.session.Selector()
	for _, ev := range req.Events {
		eventHandlers[ev.Type](sel, ev)
	}
	writeJSON(w, http.StatusOK, h.view())
}
