package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/output"
	"github.com/xuri/excelize/v2"
)

func writeBook(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "BOM"))
	rows := [][]interface{}{
		{"Item", "Designator", "MPN", "Qty"},
		{1, "R1,R2", "RC0603FR-0710KL", 2},
		{2, "C1", "GRM188R71H104KA93D", 1},
		{3, "U1", "LM358DR", 1},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(2, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("BOM", cell, &row))
	}

	path := filepath.Join(dir, "bom.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// run executes the root command in an isolated working directory.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	book := writeBook(t, dir)

	out, err := run(t, "", "inspect", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Workbook: bom.xlsx")
	assert.Contains(t, out, `range B2:E5 (3 data rows)`)
	assert.Contains(t, out, "Designator")
	assert.NotContains(t, out, "No target column detected")
}

func TestInspectJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	book := writeBook(t, dir)

	out, err := run(t, "", "inspect", book, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"LM358DR"`)
}

func TestMatchArchiveAndHistory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	book := writeBook(t, dir)
	db := filepath.Join(dir, "archive.db")
	export := filepath.Join(dir, "results.json")

	out, err := run(t, "", "match", book, "lm358dr", "nope",
		"--archive", db, "--save", "--name", "line 3", "--export", export)
	require.NoError(t, err)
	assert.Contains(t, out, `Sheet "BOM", range B2:E5`)
	assert.Contains(t, out, "LM358DR")
	assert.Contains(t, out, "Scanned: 2  Matched: 1  Match rate: 50.0%")
	assert.Contains(t, out, "Saved session ")

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results"`)
	assert.Contains(t, string(data), `"scanned_value": "nope"`)

	out, err = run(t, "", "history", "--archive", db)
	require.NoError(t, err)
	assert.Contains(t, out, "line 3")
}

func TestMatchReadsStdin(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	book := writeBook(t, dir)

	out, err := run(t, "RC0603FR-0710KL\n\n  GRM188R71H104KA93D  \n", "match", book, "--range", "b2:e5")
	require.NoError(t, err)
	assert.Contains(t, out, "Scanned: 2  Matched: 2  Match rate: 100.0%")
}

func TestMatchOverrideTarget(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	book := writeBook(t, dir)

	out, err := run(t, "", "match", book, "R1,R2", "--map", "target=C")
	require.NoError(t, err)
	assert.Contains(t, out, "Matched: 1")
}

func TestMatchErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	book := writeBook(t, dir)

	_, err := run(t, "", "match", filepath.Join(dir, "missing.xlsx"), "x")
	assert.ErrorIs(t, err, bomscan.ErrFileNotFound)

	_, err = run(t, "", "match", book, "x", "--sheet", "Nope")
	assert.ErrorIs(t, err, bomscan.ErrNoData)

	_, err = run(t, "", "match", book, "x", "--export", filepath.Join(dir, "out.csv"))
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestMatchExportXLSXUsesSheetRows(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	book := writeBook(t, dir)
	export := filepath.Join(dir, "results.xlsx")

	_, err := run(t, "", "match", book, "LM358DR", "--export", export)
	require.NoError(t, err)

	f, err := excelize.OpenFile(export)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(output.ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "5", rows[1][5], "header on row 2, LM358DR three rows below")
}
