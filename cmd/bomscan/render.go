package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ukaji3/bomscan-go/internal/archive"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/mapping"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderSheets(w io.Writer, wb *models.WorkbookData) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Sheet", "Rows", "Cols", "Table Candidates", "Print Areas"})
	for _, name := range wb.SheetOrder {
		sheet := wb.Sheets[name]
		t.AppendRow(table.Row{
			name,
			sheet.Grid.Rows(),
			sheet.Grid.Width(),
			joinRanges(sheet.TableCandidates),
			joinRanges(sheet.PrintAreas),
		})
	}
	t.Render()
}

// renderMapping lists every slot with its range column and header.
// startCol is the 1-based sheet column of the range's first column.
func renderMapping(w io.Writer, m models.ColumnMapping, headers []string, startCol int) {
	labels := mapping.Describe(m, headers)
	t := newTable(w)
	t.AppendHeader(table.Row{"Slot", "Column", "Header"})
	for _, slot := range models.Slots {
		col, ok := m.Column(slot)
		if !ok {
			t.AppendRow(table.Row{slot, "-", ""})
			continue
		}
		t.AppendRow(table.Row{slot, cellref.NumToCol(startCol + col), labels[slot]})
	}
	t.Render()
}

// renderResults prints scan records. firstRow converts range rows to sheet rows.
func renderResults(w io.Writer, records []models.ScanRecord, firstRow int) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Scanned", "Status", "Sheet Row", "MPN", "Designators", "Qty"})
	for _, rec := range records {
		res := rec.Result
		row := ""
		if res.Matched() {
			row = strconv.Itoa(firstRow + res.RowIndex)
		}
		t.AppendRow(table.Row{
			rec.ScanIndex,
			rec.ScannedValue,
			res.Status,
			row,
			res.MPN,
			res.Designators,
			res.Quantity,
		})
	}
	t.Render()
}

func renderSummary(w io.Writer, s models.Summary) {
	rate := "N/A"
	if s.MatchRate != nil {
		rate = fmt.Sprintf("%.1f%%", *s.MatchRate)
	}
	_, _ = fmt.Fprintf(w, "Scanned: %d  Matched: %d  Match rate: %s\n", s.TotalScanned, s.SuccessfulMatches, rate)
}

func renderHistory(w io.Writer, sessions []archive.SessionInfo) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(w, "(no archived sessions)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Created", "Scanned", "Matched", "Match Rate"})
	for _, s := range sessions {
		rate := "N/A"
		if s.Summary.MatchRate != nil {
			rate = fmt.Sprintf("%.1f%%", *s.Summary.MatchRate)
		}
		t.AppendRow(table.Row{
			s.ID,
			s.Name,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.Summary.TotalScanned,
			s.Summary.SuccessfulMatches,
			rate,
		})
	}
	t.Render()
}

func joinRanges(rs []models.Range) string {
	out := ""
	for i, r := range rs {
		if i > 0 {
			out += ", "
		}
		out += cellref.FormatRange(r)
	}
	return out
}
