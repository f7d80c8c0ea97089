// Package mapping associates BOM header columns with semantic slots.
package mapping

import (
	"errors"
	"strings"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"golang.org/x/text/cases"
)

// ErrInvalidMapping indicates a mapping without a target column.
var ErrInvalidMapping = errors.New("invalid column mapping: target column is required")

// ExactScore is awarded when a header equals a keyword.
const ExactScore = 10.0

// Keywords lists, per slot, the header texts that suggest the slot.
// The target list deliberately overlaps mpn and serial.
var Keywords = map[models.Slot][]string{
	models.SlotSerial: {
		"serial number", "serial no", "serial", "s/n", "sn", "line item", "item no", "item",
	},
	models.SlotMPN: {
		"mpn", "manufacturer part number", "mfr part number", "mfr part", "part number",
		"part no", "part #", "p/n", "pn",
	},
	models.SlotDesignators: {
		"designators", "designator", "reference designators", "ref des", "refdes",
		"references", "reference",
	},
	models.SlotManufacturer: {
		"manufacturer", "manufacturer name", "mfr", "mfg", "maker", "vendor", "brand",
	},
	models.SlotQuantity: {
		"quantity", "qty", "qnty", "count", "amount",
	},
	models.SlotTarget: {
		"qr code", "qr", "barcode", "code", "mpn", "part number", "part no", "p/n",
		"serial number", "serial", "sku", "id",
	},
}

// normalize folds case for comparison. Casers are stateful, so one is
// built per call.
func normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Score rates how well header suggests slot: ExactScore for an exact
// case-insensitive keyword, len(keyword)/len(header) for the best substring
// match, and 0 when no keyword occurs.
func Score(slot models.Slot, header string) float64 {
	h := normalize(header)
	if h == "" {
		return 0
	}
	best := 0.0
	for _, kw := range Keywords[slot] {
		k := normalize(kw)
		switch {
		case h == k:
			return ExactScore
		case strings.Contains(h, k):
			if score := float64(len(k)) / float64(len(h)); score > best {
				best = score
			}
		}
	}
	return best
}

// AutoDetect proposes a mapping from a header row. Each slot takes the
// column with the strictly highest score; ties keep the leftmost column.
// Slots with no keyword match stay unmapped.
func AutoDetect(headers []string) models.ColumnMapping {
	var m models.ColumnMapping
	for _, slot := range models.Slots {
		bestCol, bestScore := -1, 0.0
		for col, header := range headers {
			if score := Score(slot, header); score > bestScore {
				bestCol, bestScore = col, score
			}
		}
		if bestCol >= 0 {
			m = m.With(slot, bestCol)
		}
	}
	return m
}

// Validate reports whether the mapping can drive matching.
func Validate(m models.ColumnMapping) bool {
	_, ok := m.Target()
	return ok
}

// Confirm freezes m for use by the match engine.
func Confirm(m models.ColumnMapping) (models.ColumnMapping, error) {
	if !Validate(m) {
		return models.ColumnMapping{}, ErrInvalidMapping
	}
	return m, nil
}

// Describe returns slot -> header label for the mapped slots.
func Describe(m models.ColumnMapping, headers []string) map[models.Slot]string {
	out := make(map[models.Slot]string)
	for _, slot := range models.Slots {
		col, ok := m.Column(slot)
		if !ok {
			continue
		}
		label := ""
		if col < len(headers) {
			label = headers[col]
		}
		out[slot] = label
	}
	return out
}
