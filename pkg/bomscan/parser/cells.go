// Package parser reads BOM grids and candidate ranges from Excel files.
package parser

import (
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/xuri/excelize/v2"
)

// ExtractGrid reads every row of a sheet as strings.
// Rows keep their ragged lengths; trailing empty rows are dropped.
func ExtractGrid(f *excelize.File, sheetName string) (models.Grid, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	last := -1
	for rowIdx, row := range rows {
		for _, cell := range row {
			if cell != "" {
				last = rowIdx
				break
			}
		}
	}

	return models.Grid(rows[:last+1]), nil
}

// SliceRange returns the cells of a 1-based range as a new grid. Rows or
// cells past the end of the source read as empty strings, so the result
// is always r.Rows() x r.Cols().
func SliceRange(g models.Grid, r models.Range) models.Grid {
	if r.Rows() <= 0 || r.Cols() <= 0 {
		return nil
	}
	out := make(models.Grid, r.Rows())
	for i := range out {
		row := make([]string, r.Cols())
		for j := range row {
			row[j] = g.Cell(r.StartRow-1+i, r.StartCol-1+j)
		}
		out[i] = row
	}
	return out
}
