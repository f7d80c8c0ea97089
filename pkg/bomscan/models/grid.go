// Package models defines data structures shared by the BOM scanner components.
package models

import "strings"

// Grid is a rectangular-ish table of string cells as read from a sheet.
// Rows may be shorter than the widest row; missing cells read as "".
// Index 0 is conventionally the header row.
type Grid [][]string

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Width returns the length of the widest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Cell returns the cell at the 0-based row and column.
// Any out-of-bounds read yields an empty string.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Row returns a copy of the 0-based row, or nil when out of bounds.
func (g Grid) Row(row int) []string {
	if row < 0 || row >= len(g) {
		return nil
	}
	out := make([]string, len(g[row]))
	copy(out, g[row])
	return out
}

// Header returns the trimmed header row padded to the grid width.
func (g Grid) Header() []string {
	if len(g) == 0 {
		return nil
	}
	headers := make([]string, g.Width())
	for i := range headers {
		headers[i] = strings.TrimSpace(g.Cell(0, i))
	}
	return headers
}

// Empty reports whether the grid has no data rows below the header.
func (g Grid) Empty() bool {
	return len(g) < 2
}
