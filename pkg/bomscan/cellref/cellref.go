// Package cellref converts between 1-based (row, column) pairs and
// spreadsheet-style references such as "A1" or "AA12".
package cellref

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// ErrInvalidReference indicates a malformed cell reference string.
var ErrInvalidReference = errors.New("invalid cell reference")

// maxLetters bounds column letters so ColToNum cannot overflow.
const maxLetters = 7

// MaxColumn is the largest column number with a reference ColToNum and
// Parse accept ("ZZZZZZZ").
const MaxColumn = 8353082582

var refPattern = regexp.MustCompile(`^([A-Z]+)([1-9][0-9]*)$`)

// NumToCol converts a 1-based column number to letters using bijective
// base-26 (1 -> A, 26 -> Z, 27 -> AA). It returns "" for n < 1. Numbers
// above MaxColumn still convert, but the eight or more letters they yield
// do not round-trip through ColToNum, which returns 0 for them.
func NumToCol(n int) string {
	var buf [maxLetters + 8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('A' + (n-1)%26)
		n = (n - 1) / 26
	}
	return string(buf[i:])
}

// ColToNum converts column letters to a 1-based column number.
// Letters must be upper-case A-Z; other input yields 0.
func ColToNum(letters string) int {
	if letters == "" || len(letters) > maxLetters {
		return 0
	}
	result := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c < 'A' || c > 'Z' {
			return 0
		}
		result = result*26 + int(c-'A'+1)
	}
	return result
}

// CellRef formats a 1-based position as a reference, e.g. (12, 27) -> "AA12".
func CellRef(row, col int) string {
	return NumToCol(col) + strconv.Itoa(row)
}

// Format formats a position as a reference.
func Format(p models.CellPosition) string {
	return CellRef(p.Row, p.Col)
}

// Parse parses a canonical reference. Input is not upper-cased; callers
// normalize user input before parsing.
func Parse(ref string) (models.CellPosition, error) {
	m := refPattern.FindStringSubmatch(ref)
	if m == nil || len(m[1]) > maxLetters {
		return models.CellPosition{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	row, err := strconv.Atoi(m[2])
	if err != nil {
		return models.CellPosition{}, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}
	return models.CellPosition{Row: row, Col: ColToNum(m[1])}, nil
}

// ParseRange parses "A1:D10" (absolute "$A$1:$D$10" markers allowed) into a
// normalized range. A single reference yields a one-cell range.
func ParseRange(s string) (models.Range, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return models.Range{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}
	start, err := Parse(parts[0])
	if err != nil {
		return models.Range{}, err
	}
	end := start
	if len(parts) == 2 {
		if end, err = Parse(parts[1]); err != nil {
			return models.Range{}, err
		}
	}
	return models.NewRange(start, end), nil
}

// FormatRange formats a range as "A1:D10", or "A1" for a single cell.
func FormatRange(r models.Range) string {
	if r.SingleCell() {
		return Format(r.Start())
	}
	return Format(r.Start()) + ":" + Format(r.End())
}
