// Package output serializes scan results to JSON and xlsx.
package output

import (
	"encoding/json"
	"time"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// Export is the JSON export document.
type Export struct {
	// ExportedAt is when the export was produced.
	ExportedAt time.Time `json:"exported_at"`
	// Results lists records by ascending scan index.
	Results []models.ScanRecord `json:"results"`
	// Summary holds the session totals.
	Summary models.Summary `json:"summary"`
}

// ToJSON serializes v to JSON.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
