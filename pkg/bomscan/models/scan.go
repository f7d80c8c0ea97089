package models

import "time"

// MatchStatus tags a MatchResult.
type MatchStatus string

const (
	StatusMatched  MatchStatus = "matched"
	StatusNotFound MatchStatus = "not_found"
)

// MatchResult is the outcome of matching one scanned value against the BOM.
// Success fields are only populated when Status is StatusMatched; Reason is
// only populated when Status is StatusNotFound.
type MatchResult struct {
	// Status is matched or not_found.
	Status MatchStatus `json:"status"`
	// MatchedValue is the target cell value that matched.
	MatchedValue string `json:"matched_value,omitempty"`
	// RowIndex is the 0-based row in the reference grid (header is 0).
	RowIndex int `json:"row_index,omitempty"`
	// RowData is a copy of the matched row.
	RowData      []string `json:"row_data,omitempty"`
	SerialNo     string   `json:"serial_no,omitempty"`
	MPN          string   `json:"mpn,omitempty"`
	Designators  string   `json:"designators,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Quantity     string   `json:"quantity,omitempty"`
	// Reason explains a not_found result.
	Reason string `json:"reason,omitempty"`
}

// Matched reports whether the result is a success.
func (r MatchResult) Matched() bool {
	return r.Status == StatusMatched
}

// NotFound builds a failed result.
func NotFound(reason string) MatchResult {
	return MatchResult{Status: StatusNotFound, Reason: reason}
}

// Bounds is the decoder-reported location of a code in the camera frame.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScanDetails carries decoder metadata through the ledger untouched.
type ScanDetails struct {
	// Format is the barcode symbology reported by the decoder (e.g. qr_code).
	Format string `json:"format,omitempty"`
	// Geometry is the optional bounding box of the decoded code.
	Geometry *Bounds `json:"geometry,omitempty"`
}

// ScanRecord is one logged scan attempt. Records are never mutated.
type ScanRecord struct {
	ID           string    `json:"id"`
	ScannedValue string    `json:"scanned_value"`
	Timestamp    time.Time `json:"timestamp"`
	// ScanIndex is 1-based and strictly increasing within a session.
	ScanIndex int         `json:"scan_index"`
	Result    MatchResult `json:"match_result"`
	Details   ScanDetails `json:"scan_details"`
}

// Stats are the ledger's aggregate counters.
type Stats struct {
	TotalScanned      int `json:"total_scanned"`
	SuccessfulMatches int `json:"successful_matches"`
	// DuplicateScans is reserved; nothing increments it.
	DuplicateScans int        `json:"duplicate_scans"`
	StartTime      *time.Time `json:"start_time,omitempty"`
}

// Summary is the export footer derived from Stats.
type Summary struct {
	TotalScanned      int `json:"total_scanned"`
	SuccessfulMatches int `json:"successful_matches"`
	// MatchRate is a percentage with one decimal; nil when nothing was scanned.
	MatchRate *float64 `json:"match_rate"`
	// DurationMinutes is nil until the first scan of the session.
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
}
