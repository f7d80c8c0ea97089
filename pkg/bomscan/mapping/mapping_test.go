package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

func column(t *testing.T, m models.ColumnMapping, slot models.Slot) int {
	t.Helper()
	col, ok := m.Column(slot)
	require.True(t, ok, "slot %s should be mapped", slot)
	return col
}

func TestAutoDetectScoring(t *testing.T) {
	m := AutoDetect([]string{"Serial Number", "MPN", "Qty"})

	assert.Equal(t, 0, column(t, m, models.SlotSerial))
	assert.Equal(t, 1, column(t, m, models.SlotMPN))
	assert.Equal(t, 2, column(t, m, models.SlotQuantity))

	_, ok := m.Column(models.SlotDesignators)
	assert.False(t, ok)
	_, ok = m.Column(models.SlotManufacturer)
	assert.False(t, ok)
}

func TestAutoDetectPrefersExactOverSubstring(t *testing.T) {
	m := AutoDetect([]string{"Manufacturer Part Number", "Manufacturer", "Ref Des", "Quantity Per Board"})

	assert.Equal(t, 1, column(t, m, models.SlotManufacturer))
	assert.Equal(t, 0, column(t, m, models.SlotMPN))
	assert.Equal(t, 2, column(t, m, models.SlotDesignators))
	assert.Equal(t, 3, column(t, m, models.SlotQuantity))
}

func TestAutoDetectTiesKeepFirst(t *testing.T) {
	m := AutoDetect([]string{"qty", "QTY"})
	assert.Equal(t, 0, column(t, m, models.SlotQuantity))
}

func TestAutoDetectNothing(t *testing.T) {
	m := AutoDetect([]string{"", "Notes", "   "})
	assert.Equal(t, 0, m.Mapped())
	assert.False(t, Validate(m))
}

func TestScore(t *testing.T) {
	assert.Equal(t, ExactScore, Score(models.SlotQuantity, "  QTY "))
	assert.InDelta(t, 3.0/11.0, Score(models.SlotQuantity, "qty (total)"), 1e-9)
	assert.Zero(t, Score(models.SlotQuantity, "notes"))
	assert.Zero(t, Score(models.SlotQuantity, ""))
}

func TestValidateGatesOnTarget(t *testing.T) {
	var m models.ColumnMapping
	for _, slot := range models.Slots {
		if slot != models.SlotTarget {
			m = m.With(slot, 0)
		}
	}
	assert.False(t, Validate(m), "every optional slot mapped but no target")

	only := models.ColumnMapping{}.With(models.SlotTarget, 4)
	assert.True(t, Validate(only))
}

func TestConfirm(t *testing.T) {
	_, err := Confirm(models.ColumnMapping{}.With(models.SlotMPN, 1))
	assert.ErrorIs(t, err, ErrInvalidMapping)

	in := models.ColumnMapping{}.With(models.SlotTarget, 1)
	out, err := Confirm(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDescribe(t *testing.T) {
	headers := []string{"Serial Number", "MPN", "Qty"}
	got := Describe(AutoDetect(headers).Without(models.SlotTarget).With(models.SlotTarget, 9), headers)
	assert.Equal(t, "MPN", got[models.SlotMPN])
	assert.Equal(t, "", got[models.SlotTarget])
	_, ok := got[models.SlotDesignators]
	assert.False(t, ok)
}
