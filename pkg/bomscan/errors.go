package bomscan

import (
	"errors"
	"fmt"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/mapping"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx format.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrNoData indicates an operation needs a sheet, range or mapping that
// does not exist yet.
var ErrNoData = errors.New("no data")

// ErrInvalidReference is returned for malformed or out-of-grid cell references.
var ErrInvalidReference = cellref.ErrInvalidReference

// ErrInvalidMapping is returned when confirming a mapping without a target.
var ErrInvalidMapping = mapping.ErrInvalidMapping

// LoadError represents an error while reading one part of a sheet.
type LoadError struct {
	SheetName string
	Component string // "grid", "tables", "print_areas"
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load error in sheet %q (%s): %v", e.SheetName, e.Component, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError.
func NewLoadError(sheetName, component string, err error) *LoadError {
	return &LoadError{
		SheetName: sheetName,
		Component: component,
		Err:       err,
	}
}
