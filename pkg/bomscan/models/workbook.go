package models

// WorkbookData represents workbook-level container with per-sheet data.
type WorkbookData struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// SheetOrder lists sheet names in workbook order.
	SheetOrder []string `json:"sheet_order"`
	// Sheets maps sheet name to SheetData.
	Sheets map[string]SheetData `json:"sheets"`
}

// Sheet returns the named sheet, or the first sheet when name is empty.
func (w *WorkbookData) Sheet(name string) (string, SheetData, bool) {
	if name == "" {
		if len(w.SheetOrder) == 0 {
			return "", SheetData{}, false
		}
		name = w.SheetOrder[0]
	}
	s, ok := w.Sheets[name]
	return name, s, ok
}
