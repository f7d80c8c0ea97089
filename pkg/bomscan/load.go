package bomscan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/parser"
	"github.com/xuri/excelize/v2"
)

// Load reads a BOM workbook into per-sheet grids.
func Load(path string, opts Options) (*models.WorkbookData, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalidFormat, err)
	}
	defer f.Close()

	wb := &models.WorkbookData{
		BookName: filepath.Base(path),
		Sheets:   make(map[string]models.SheetData),
	}

	for _, sheetName := range f.GetSheetList() {
		if !opts.wantSheet(sheetName) {
			continue
		}

		grid, err := parser.ExtractGrid(f, sheetName)
		if err != nil {
			return nil, NewLoadError(sheetName, "grid", err)
		}

		sheet := models.SheetData{Grid: grid}
		if opts.ShouldDetectTables() {
			sheet.TableCandidates = parser.DetectTables(grid, parser.DefaultTableParams())
		}

		wb.SheetOrder = append(wb.SheetOrder, sheetName)
		wb.Sheets[sheetName] = sheet
	}

	if len(wb.SheetOrder) == 0 {
		return nil, fmt.Errorf("%s: no matching sheets: %w", path, ErrNoData)
	}

	// Extract print areas
	if opts.ShouldIncludePrintAreas() {
		printAreas, err := parser.ExtractPrintAreas(f)
		if err != nil {
			return nil, NewLoadError("", "print_areas", err)
		}
		for sheetName, areas := range printAreas {
			if sheet, ok := wb.Sheets[sheetName]; ok {
				sheet.PrintAreas = areas
				wb.Sheets[sheetName] = sheet
			}
		}
	}

	return wb, nil
}

// LoadSheet loads path and returns the grid and suggested range of one
// sheet. An empty name selects the first sheet.
func LoadSheet(path, sheetName string, opts Options) (string, models.SheetData, error) {
	wb, err := Load(path, opts)
	if err != nil {
		return "", models.SheetData{}, err
	}
	name, sheet, ok := wb.Sheet(sheetName)
	if !ok {
		return "", models.SheetData{}, fmt.Errorf("sheet %q: %w", sheetName, ErrNoData)
	}
	return name, sheet, nil
}
