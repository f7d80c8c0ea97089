package models

// CellPosition is a 1-based sheet coordinate.
type CellPosition struct {
	// Row is the row index (1-based).
	Row int `json:"row"`
	// Col is the column index (1-based).
	Col int `json:"col"`
}

// Valid reports whether both coordinates are strictly positive.
func (p CellPosition) Valid() bool {
	return p.Row >= 1 && p.Col >= 1
}

// Range represents normalized cell coordinate bounds.
// StartRow <= EndRow and StartCol <= EndCol always hold for ranges built
// with NewRange.
type Range struct {
	// StartRow is the top row (1-based).
	StartRow int `json:"start_row"`
	// StartCol is the left column (1-based).
	StartCol int `json:"start_col"`
	// EndRow is the bottom row (1-based, inclusive).
	EndRow int `json:"end_row"`
	// EndCol is the right column (1-based, inclusive).
	EndCol int `json:"end_col"`
}

// NewRange builds the bounding rectangle of two corners regardless of
// which corner came first.
func NewRange(a, b CellPosition) Range {
	return Range{
		StartRow: min(a.Row, b.Row),
		StartCol: min(a.Col, b.Col),
		EndRow:   max(a.Row, b.Row),
		EndCol:   max(a.Col, b.Col),
	}
}

// Start returns the top-left corner.
func (r Range) Start() CellPosition {
	return CellPosition{Row: r.StartRow, Col: r.StartCol}
}

// End returns the bottom-right corner.
func (r Range) End() CellPosition {
	return CellPosition{Row: r.EndRow, Col: r.EndCol}
}

// Rows returns the number of rows covered.
func (r Range) Rows() int {
	return r.EndRow - r.StartRow + 1
}

// Cols returns the number of columns covered.
func (r Range) Cols() int {
	return r.EndCol - r.StartCol + 1
}

// Contains reports whether p lies inside the range.
func (r Range) Contains(p CellPosition) bool {
	return p.Row >= r.StartRow && p.Row <= r.EndRow &&
		p.Col >= r.StartCol && p.Col <= r.EndCol
}

// SingleCell reports whether the range denotes exactly one cell.
func (r Range) SingleCell() bool {
	return r.StartRow == r.EndRow && r.StartCol == r.EndCol
}
