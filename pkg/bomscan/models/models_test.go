package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRangeNormalizes(t *testing.T) {
	got := NewRange(CellPosition{Row: 5, Col: 3}, CellPosition{Row: 2, Col: 7})
	assert.Equal(t, Range{StartRow: 2, StartCol: 3, EndRow: 5, EndCol: 7}, got)

	same := NewRange(CellPosition{Row: 2, Col: 7}, CellPosition{Row: 5, Col: 3})
	assert.Equal(t, got, same)
	assert.Equal(t, 4, got.Rows())
	assert.Equal(t, 5, got.Cols())
	assert.True(t, got.Contains(CellPosition{Row: 3, Col: 3}))
	assert.False(t, got.Contains(CellPosition{Row: 1, Col: 3}))
}

func TestSingleCellRange(t *testing.T) {
	r := NewRange(CellPosition{Row: 2, Col: 2}, CellPosition{Row: 2, Col: 2})
	assert.True(t, r.SingleCell())
	assert.Equal(t, 1, r.Rows())
}

func TestGridCellClamps(t *testing.T) {
	g := Grid{{"H1", "H2", "H3"}, {"a"}, {}}
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, "a", g.Cell(1, 0))
	assert.Equal(t, "", g.Cell(1, 2))
	assert.Equal(t, "", g.Cell(2, 0))
	assert.Equal(t, "", g.Cell(9, 0))
	assert.Equal(t, "", g.Cell(-1, 0))
	assert.Equal(t, []string{"H1", "H2", "H3"}, g.Header())
	assert.Nil(t, g.Row(5))
}

func TestColumnMappingValueSemantics(t *testing.T) {
	var m ColumnMapping
	_, ok := m.Target()
	assert.False(t, ok)

	m2 := m.With(SlotTarget, 0)
	_, ok = m.Target()
	assert.False(t, ok, "With must not modify the receiver")

	col, ok := m2.Target()
	require.True(t, ok)
	assert.Equal(t, 0, col)
	assert.Equal(t, 1, m2.Mapped())

	m3 := m2.Without(SlotTarget)
	_, ok = m3.Target()
	assert.False(t, ok)
	assert.Equal(t, m, m3)
}

func TestColumnMappingJSON(t *testing.T) {
	m := ColumnMapping{}.With(SlotSerial, 0).With(SlotTarget, 3)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"serial":0,"mpn":null,"designators":null,"manufacturer":null,"quantity":null,"target":3}`, string(data))

	var back ColumnMapping
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)

	assert.Error(t, json.Unmarshal([]byte(`{"bogus":1}`), &back))
	assert.Error(t, json.Unmarshal([]byte(`{"target":-2}`), &back))
}

func TestSuggestedRange(t *testing.T) {
	pa := Range{StartRow: 1, StartCol: 1, EndRow: 3, EndCol: 3}
	tc := Range{StartRow: 2, StartCol: 2, EndRow: 9, EndCol: 4}

	_, ok := SheetData{}.SuggestedRange()
	assert.False(t, ok)

	got, ok := SheetData{TableCandidates: []Range{tc}}.SuggestedRange()
	require.True(t, ok)
	assert.Equal(t, tc, got)

	got, _ = SheetData{TableCandidates: []Range{tc}, PrintAreas: []Range{pa}}.SuggestedRange()
	assert.Equal(t, pa, got)
}
