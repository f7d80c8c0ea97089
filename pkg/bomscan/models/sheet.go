package models

// SheetData represents structured data for a single sheet.
type SheetData struct {
	// Grid contains every row of the sheet as strings, header first.
	Grid Grid `json:"grid,omitempty"`
	// TableCandidates contains ranges likely representing a BOM table.
	TableCandidates []Range `json:"table_candidates,omitempty"`
	// PrintAreas contains user-defined print areas.
	PrintAreas []Range `json:"print_areas,omitempty"`
}

// SuggestedRange returns the range to preselect for the sheet:
// the first print area, then the first table candidate.
func (s SheetData) SuggestedRange() (Range, bool) {
	if len(s.PrintAreas) > 0 {
		return s.PrintAreas[0], true
	}
	if len(s.TableCandidates) > 0 {
		return s.TableCandidates[0], true
	}
	return Range{}, false
}
