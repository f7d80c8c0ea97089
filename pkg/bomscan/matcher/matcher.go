// Package matcher finds the BOM row whose target column equals a scanned code.
package matcher

import (
	"strings"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"golang.org/x/text/cases"
)

const (
	// ReasonNoReference is reported when no grid or target column is set.
	ReasonNoReference = "no grid or mapping"
	// ReasonNoMatch is reported when every data row was compared.
	ReasonNoMatch = "no matching value"
)

// Match compares the trimmed scanned value case-insensitively against the
// trimmed target cell of every data row (the header row 0 is skipped) and
// returns the first equal row. It never fails: missing input degrades to a
// not_found result and ragged rows read as empty cells.
func Match(scanned string, grid models.Grid, mapping models.ColumnMapping) models.MatchResult {
	target, ok := mapping.Target()
	if grid == nil || !ok {
		return models.NotFound(ReasonNoReference)
	}

	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(scanned))
	for row := 1; row < grid.Rows(); row++ {
		cell := strings.TrimSpace(grid.Cell(row, target))
		if fold.String(cell) != want {
			continue
		}
		return models.MatchResult{
			Status:       models.StatusMatched,
			MatchedValue: cell,
			RowIndex:     row,
			RowData:      grid.Row(row),
			SerialNo:     slotValue(grid, row, mapping, models.SlotSerial),
			MPN:          slotValue(grid, row, mapping, models.SlotMPN),
			Designators:  slotValue(grid, row, mapping, models.SlotDesignators),
			Manufacturer: slotValue(grid, row, mapping, models.SlotManufacturer),
			Quantity:     slotValue(grid, row, mapping, models.SlotQuantity),
		}
	}
	return models.NotFound(ReasonNoMatch)
}

func slotValue(grid models.Grid, row int, mapping models.ColumnMapping, slot models.Slot) string {
	col, ok := mapping.Column(slot)
	if !ok {
		return ""
	}
	return strings.TrimSpace(grid.Cell(row, col))
}
