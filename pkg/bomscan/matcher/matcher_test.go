package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

func sampleGrid() models.Grid {
	return models.Grid{
		{"Header", "Target"},
		{"r1", "X"},
		{"r2", "x"},
		{"r3", "Y"},
	}
}

func TestMatchFirstRowWins(t *testing.T) {
	m := models.ColumnMapping{}.With(models.SlotTarget, 1).With(models.SlotSerial, 0)

	res := Match("X", sampleGrid(), m)
	require.True(t, res.Matched())
	assert.Equal(t, 1, res.RowIndex)
	assert.Equal(t, "r1", res.SerialNo)
	assert.Equal(t, "X", res.MatchedValue)
	assert.Equal(t, []string{"r1", "X"}, res.RowData)

	res = Match("  x ", sampleGrid(), m)
	require.True(t, res.Matched())
	assert.Equal(t, 1, res.RowIndex, "lower-case input still hits the first row")
}

func TestMatchNotFound(t *testing.T) {
	m := models.ColumnMapping{}.With(models.SlotTarget, 1)
	res := Match("Z", sampleGrid(), m)
	assert.False(t, res.Matched())
	assert.Equal(t, models.StatusNotFound, res.Status)
	assert.Equal(t, ReasonNoMatch, res.Reason)
}

func TestMatchSkipsHeader(t *testing.T) {
	m := models.ColumnMapping{}.With(models.SlotTarget, 1)
	res := Match("target", sampleGrid(), m)
	assert.False(t, res.Matched())
}

func TestMatchWithoutReference(t *testing.T) {
	res := Match("X", nil, models.ColumnMapping{}.With(models.SlotTarget, 1))
	assert.Equal(t, ReasonNoReference, res.Reason)

	res = Match("X", sampleGrid(), models.ColumnMapping{}.With(models.SlotMPN, 1))
	assert.Equal(t, ReasonNoReference, res.Reason)
}

func TestMatchRaggedRows(t *testing.T) {
	grid := models.Grid{
		{"Ref", "MPN", "Mfr", "Qty"},
		{"R1"},
		{},
		{"C3", "GRM188", "Murata"},
	}
	m := models.ColumnMapping{}.
		With(models.SlotTarget, 1).
		With(models.SlotMPN, 1).
		With(models.SlotDesignators, 0).
		With(models.SlotManufacturer, 2).
		With(models.SlotQuantity, 3).
		With(models.SlotSerial, 42)

	res := Match("grm188", grid, m)
	require.True(t, res.Matched())
	assert.Equal(t, 3, res.RowIndex)
	assert.Equal(t, "C3", res.Designators)
	assert.Equal(t, "Murata", res.Manufacturer)
	assert.Equal(t, "", res.Quantity)
	assert.Equal(t, "", res.SerialNo)

	// An empty scan matches an empty target cell; rows 1 and 2 have none.
	res = Match("", grid, m)
	require.True(t, res.Matched())
	assert.Equal(t, 1, res.RowIndex)
}

func TestMatchUnicodeFolding(t *testing.T) {
	grid := models.Grid{{"Code"}, {"STRASSE-1"}, {"Ärger-2"}}
	m := models.ColumnMapping{}.With(models.SlotTarget, 0)

	res := Match("ärger-2", grid, m)
	require.True(t, res.Matched())
	assert.Equal(t, 2, res.RowIndex)
}
