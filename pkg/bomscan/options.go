// Package bomscan loads BOM workbooks and runs scan sessions against them.
package bomscan

// Options configures workbook loading.
type Options struct {
	// Sheets restricts loading to the named sheets. Empty loads every sheet.
	Sheets []string
	// IncludePrintAreas specifies whether to read print areas.
	// If nil, defaults to true.
	IncludePrintAreas *bool
	// DetectTables specifies whether to compute table candidates.
	// If nil, defaults to true.
	DetectTables *bool
}

// DefaultOptions returns default load options.
func DefaultOptions() Options {
	return Options{}
}

// ShouldIncludePrintAreas returns whether to include print areas.
func (o Options) ShouldIncludePrintAreas() bool {
	if o.IncludePrintAreas != nil {
		return *o.IncludePrintAreas
	}
	return true
}

// ShouldDetectTables returns whether to compute table candidates.
func (o Options) ShouldDetectTables() bool {
	if o.DetectTables != nil {
		return *o.DetectTables
	}
	return true
}

func (o Options) wantSheet(name string) bool {
	if len(o.Sheets) == 0 {
		return true
	}
	for _, s := range o.Sheets {
		if s == name {
			return true
		}
	}
	return false
}
