package parser

import (
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// TableDetectionParams holds parameters for table detection.
type TableDetectionParams struct {
	DensityMin       float64
	MinNonemptyCells int
	// MinRows requires a header plus at least one data row.
	MinRows int
}

// DefaultTableParams returns default table detection parameters.
func DefaultTableParams() TableDetectionParams {
	return TableDetectionParams{
		DensityMin:       0.04,
		MinNonemptyCells: 3,
		MinRows:          2,
	}
}

// DetectTables detects the table-like region of a grid.
// It returns the bounding range of non-empty cells when it is dense enough
// to be a BOM, and nil otherwise.
func DetectTables(g models.Grid, params TableDetectionParams) []models.Range {
	if len(g) == 0 {
		return nil
	}

	// Find the bounding box of non-empty cells
	minRow, maxRow, minCol, maxCol := findDataBounds(g)
	if minRow < 0 {
		return nil
	}
	if maxRow-minRow+1 < params.MinRows {
		return nil
	}

	totalCells := (maxRow - minRow + 1) * (maxCol - minCol + 1)
	nonEmptyCells := countNonEmptyCells(g, minRow, maxRow, minCol, maxCol)

	if nonEmptyCells < params.MinNonemptyCells {
		return nil
	}

	density := float64(nonEmptyCells) / float64(totalCells)
	if density < params.DensityMin {
		return nil
	}

	return []models.Range{{
		StartRow: minRow + 1,
		StartCol: minCol + 1,
		EndRow:   maxRow + 1,
		EndCol:   maxCol + 1,
	}}
}

// findDataBounds finds the 0-based bounding box of non-empty cells.
func findDataBounds(rows models.Grid) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell != "" {
				if minRow < 0 || rowIdx < minRow {
					minRow = rowIdx
				}
				if maxRow < 0 || rowIdx > maxRow {
					maxRow = rowIdx
				}
				if minCol < 0 || colIdx < minCol {
					minCol = colIdx
				}
				if maxCol < 0 || colIdx > maxCol {
					maxCol = colIdx
				}
			}
		}
	}

	return
}

// countNonEmptyCells counts non-empty cells within bounds.
func countNonEmptyCells(rows models.Grid, minRow, maxRow, minCol, maxCol int) int {
	count := 0
	for rowIdx := minRow; rowIdx <= maxRow && rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		for colIdx := minCol; colIdx <= maxCol && colIdx < len(row); colIdx++ {
			if row[colIdx] != "" {
				count++
			}
		}
	}
	return count
}
