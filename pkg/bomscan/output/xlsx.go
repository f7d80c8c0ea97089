package output

import (
	"fmt"
	"io"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/xuri/excelize/v2"
)

const (
	// ResultsSheet is the name of the per-scan sheet.
	ResultsSheet = "Scan Results"
	// SummarySheet is the name of the totals sheet.
	SummarySheet = "Summary"

	timestampLayout = "2006-01-02 15:04:05"
)

var resultHeaders = []interface{}{
	"Scan #", "Timestamp", "Scanned Value", "Status", "Matched Value", "Sheet Row",
	"Serial No", "MPN", "Designators", "Manufacturer", "Quantity", "Format", "Reason",
}

// WriteResultsXLSX writes rows and summary as a two-sheet workbook.
// Rows are written in the order given; callers pass ledger export order.
// firstRow is the sheet row of the range header, so a match is reported
// at firstRow+RowIndex. A firstRow of 0 keeps range-relative rows.
func WriteResultsXLSX(w io.Writer, rows []models.ScanRecord, summary models.Summary, firstRow int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &resultHeaders); err != nil {
		return err
	}

	for i, rec := range rows {
		res := rec.Result
		var sheetRow interface{}
		if res.Matched() {
			sheetRow = firstRow + res.RowIndex
		}
		values := []interface{}{
			rec.ScanIndex,
			rec.Timestamp.Format(timestampLayout),
			rec.ScannedValue,
			string(res.Status),
			res.MatchedValue,
			sheetRow,
			res.SerialNo,
			res.MPN,
			res.Designators,
			res.Manufacturer,
			res.Quantity,
			rec.Details.Format,
			res.Reason,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ResultsSheet, cell, &values); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	matchRate := interface{}("N/A")
	if summary.MatchRate != nil {
		matchRate = *summary.MatchRate
	}
	duration := interface{}("N/A")
	if summary.DurationMinutes != nil {
		duration = fmt.Sprintf("%.1f", *summary.DurationMinutes)
	}
	summaryRows := [][]interface{}{
		{"Total Scanned", summary.TotalScanned},
		{"Successful Matches", summary.SuccessfulMatches},
		{"Match Rate (%)", matchRate},
		{"Duration (minutes)", duration},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
