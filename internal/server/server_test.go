package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/output"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/parser"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeArchiver struct {
	name    string
	summary models.Summary
	records []models.ScanRecord
	err     error
}

func (a *fakeArchiver) SaveSession(_ context.Context, name string, summary models.Summary, records []models.ScanRecord) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.name, a.summary, a.records = name, summary, records
	return "arch-1", nil
}

func testGrid() models.Grid {
	return models.Grid{
		{"Item", "Designator", "MPN", "Qty"},
		{"1", "R1,R2", "RC0603FR-0710KL", "2"},
		{"2", "C1", "GRM188R71H104KA93D", "1"},
		{"3", "U1", "LM358DR", "1"},
	}
}

func newTestServer(t *testing.T, archiver Archiver) (http.Handler, *bomscan.Session) {
	t.Helper()
	grid := testGrid()
	session := bomscan.NewSession(grid, bomscan.SessionOptions{Logger: testLogger()})
	t.Cleanup(session.Close)
	data := models.SheetData{Grid: grid, TableCandidates: parser.DetectTables(grid, parser.DefaultTableParams())}
	srv := NewServer(testLogger(), session, SheetInfo{BookName: "bom.xlsx", Name: "BOM", Data: data}, archiver)
	return srv, session
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestGetSheet(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodGet, "/v1/sheet", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[sheetResponse](t, w)
	assert.Equal(t, "BOM", resp.Name)
	assert.Equal(t, 4, resp.Rows)
	assert.Equal(t, 4, resp.Cols)
	assert.Equal(t, "A1:D4", resp.SuggestedRange)
	assert.Equal(t, []string{"A1:D4"}, resp.TableCandidates)
	assert.Nil(t, resp.Grid)

	w = do(t, srv, http.MethodGet, "/v1/sheet?grid=true", "")
	assert.Equal(t, testGrid(), decode[sheetResponse](t, w).Grid)
}

func TestScanWorkflow(t *testing.T) {
	archiver := &fakeArchiver{}
	srv, _ := newTestServer(t, archiver)

	w := do(t, srv, http.MethodPost, "/v1/selection/manual", `{"start":"d4","end":"a1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decode[selectionResponse](t, w)
	assert.Equal(t, "confirmed", sel.State)
	assert.Equal(t, "A1:D4", sel.Ref)

	w = do(t, srv, http.MethodGet, "/v1/mapping", "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decode[map[string]any](t, w)
	proposed := m["proposed"].(map[string]any)
	assert.Equal(t, 2.0, proposed["target"])
	assert.Equal(t, 1.0, proposed["designators"])

	body, err := json.Marshal(proposed)
	require.NoError(t, err)
	w = do(t, srv, http.MethodPost, "/v1/mapping", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, srv, http.MethodPost, "/v1/scans", `{"value":"gRM188R71H104KA93D","format":"qr_code","geometry":{"x":1,"y":2,"width":3,"height":4}}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.MatchResult](t, w)
	assert.True(t, res.Matched())
	assert.Equal(t, 2, res.RowIndex)
	assert.Equal(t, "C1", res.Designators)

	w = do(t, srv, http.MethodPost, "/v1/scans", `{"value":"nothing"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusNotFound, decode[models.MatchResult](t, w).Status)

	w = do(t, srv, http.MethodGet, "/v1/scans", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[scansResponse](t, w)
	require.Len(t, list.Results, 2)
	assert.Equal(t, 2, list.Results[0].ScanIndex, "newest first")
	assert.Equal(t, 2, list.Stats.TotalScanned)
	require.NotNil(t, list.Summary.MatchRate)
	assert.Equal(t, 50.0, *list.Summary.MatchRate)

	w = do(t, srv, http.MethodPost, "/v1/archive", `{"name":"line 1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "arch-1", decode[archiveResponse](t, w).ID)
	assert.Equal(t, "line 1", archiver.name)
	require.Len(t, archiver.records, 2)
	assert.Equal(t, 1, archiver.records[0].ScanIndex, "archived in export order")

	w = do(t, srv, http.MethodDelete, "/v1/scans", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, srv, http.MethodGet, "/v1/scans", "")
	assert.Empty(t, decode[scansResponse](t, w).Results)
}

func TestExport(t *testing.T) {
	srv, session := newTestServer(t, nil)
	require.NoError(t, session.SelectRange("A1:D4"))
	require.NoError(t, session.ConfirmMapping(session.ProposedMapping()))
	session.Scan("LM358DR", models.ScanDetails{})
	session.Scan("x", models.ScanDetails{})

	w := do(t, srv, http.MethodGet, "/v1/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[output.Export](t, w)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, 1, doc.Results[0].ScanIndex)

	w = do(t, srv, http.MethodGet, "/v1/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(output.ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "4", rows[1][5], "LM358DR sits on sheet row 4")

	w = do(t, srv, http.MethodGet, "/v1/export?format=csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectionErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/v1/selection/manual", `{"start":"A1","end":"Z9"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "outside the sheet")

	w = do(t, srv, http.MethodPost, "/v1/selection/manual", `{"start":"A0","end":"B2"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, srv, http.MethodPost, "/v1/selection/manual", `{"begin":"A1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown fields are rejected")

	w = do(t, srv, http.MethodGet, "/v1/selection", "")
	assert.Equal(t, "idle", decode[selectionResponse](t, w).State)
}

func TestSelectionEvents(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/v1/selection/events", `{"events":[
		{"type":"pointer_down","row":3,"col":2},
		{"type":"pointer_enter","row":2,"col":4}
	]}`)
	require.Equal(t, http.StatusOK, w.Code)
	sel := decode[selectionResponse](t, w)
	assert.Equal(t, "anchoring", sel.State)
	require.NotNil(t, sel.Preview)
	assert.Equal(t, models.Range{StartRow: 2, StartCol: 2, EndRow: 3, EndCol: 4}, *sel.Preview)

	w = do(t, srv, http.MethodPost, "/v1/selection/events", `{"events":[{"type":"pointer_up","row":1,"col":1}]}`)
	assert.Equal(t, "A1:B3", decode[selectionResponse](t, w).Ref)

	w = do(t, srv, http.MethodPost, "/v1/selection/events", `{"events":[{"type":"clear"},{"type":"wave"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, srv, http.MethodGet, "/v1/selection", "")
	assert.Equal(t, "confirmed", decode[selectionResponse](t, w).State, "a rejected batch applies nothing")

	w = do(t, srv, http.MethodDelete, "/v1/selection", "")
	assert.Equal(t, "idle", decode[selectionResponse](t, w).State)
}

func TestSelectionMode(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodPut, "/v1/selection/mode", `{"mode":"click"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "click", decode[selectionResponse](t, w).Mode)

	w = do(t, srv, http.MethodPost, "/v1/selection/events", `{"events":[
		{"type":"click","row":1,"col":1},
		{"type":"click","row":4,"col":4}
	]}`)
	assert.Equal(t, "A1:D4", decode[selectionResponse](t, w).Ref)

	w = do(t, srv, http.MethodPut, "/v1/selection/mode", `{"mode":"lasso"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMappingErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodGet, "/v1/mapping", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, srv, http.MethodPost, "/v1/mapping", `{"target":0}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	do(t, srv, http.MethodPost, "/v1/selection/manual", `{"start":"A1","end":"D4"}`)
	w = do(t, srv, http.MethodPost, "/v1/mapping", `{"serial":0,"target":null}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = do(t, srv, http.MethodPost, "/v1/mapping", `{"colour":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanRequiresValue(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodPost, "/v1/scans", `{"format":"qr_code"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/v1/scans", `{"value":"LM358DR"}`)
	require.Equal(t, http.StatusOK, w.Code, "scans before mapping degrade to not_found")
	assert.Equal(t, models.StatusNotFound, decode[models.MatchResult](t, w).Status)
}

func TestArchiveUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodPost, "/v1/archive", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	srv, _ = newTestServer(t, &fakeArchiver{err: errors.New("disk full")})
	w = do(t, srv, http.MethodPost, "/v1/archive", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	do(t, srv, http.MethodGet, "/v1/health", "")

	w := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `bomscan_api_requests_total{method="GET",route="/v1/health",sheet="BOM",status="200"}`)
}
