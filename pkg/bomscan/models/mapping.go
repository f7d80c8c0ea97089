package models

import (
	"encoding/json"
	"fmt"
)

// Slot names a semantic role a spreadsheet column can play.
type Slot string

const (
	SlotSerial       Slot = "serial"
	SlotMPN          Slot = "mpn"
	SlotDesignators  Slot = "designators"
	SlotManufacturer Slot = "manufacturer"
	SlotQuantity     Slot = "quantity"
	// SlotTarget is the column scanned values are compared against.
	SlotTarget Slot = "target"
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotSerial, SlotMPN, SlotDesignators, SlotManufacturer, SlotQuantity, SlotTarget}

func slotIndex(s Slot) int {
	for i, slot := range Slots {
		if slot == s {
			return i
		}
	}
	return -1
}

// ParseSlot validates a slot name.
func ParseSlot(name string) (Slot, error) {
	if i := slotIndex(Slot(name)); i >= 0 {
		return Slots[i], nil
	}
	return "", fmt.Errorf("unknown mapping slot %q", name)
}

// ColumnMapping associates each Slot with at most one 0-based column.
// It is a value type: With and Without return modified copies.
// The zero value has every slot unmapped.
type ColumnMapping struct {
	// cols holds column+1 per slot so that 0 means unmapped.
	cols [6]int
}

// Column returns the 0-based column mapped to s.
func (m ColumnMapping) Column(s Slot) (int, bool) {
	i := slotIndex(s)
	if i < 0 || m.cols[i] == 0 {
		return 0, false
	}
	return m.cols[i] - 1, true
}

// Target returns the mapped target column.
func (m ColumnMapping) Target() (int, bool) {
	return m.Column(SlotTarget)
}

// With returns a copy with s mapped to col. A negative col unmaps s.
func (m ColumnMapping) With(s Slot, col int) ColumnMapping {
	i := slotIndex(s)
	if i < 0 {
		return m
	}
	if col < 0 {
		m.cols[i] = 0
	} else {
		m.cols[i] = col + 1
	}
	return m
}

// Without returns a copy with s unmapped.
func (m ColumnMapping) Without(s Slot) ColumnMapping {
	return m.With(s, -1)
}

// Mapped returns the number of mapped slots.
func (m ColumnMapping) Mapped() int {
	n := 0
	for _, c := range m.cols {
		if c != 0 {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the mapping as {"slot": column|null}.
func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	out := make(map[Slot]*int, len(Slots))
	for _, s := range Slots {
		if col, ok := m.Column(s); ok {
			out[s] = &col
		} else {
			out[s] = nil
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes {"slot": column|null}. Unknown slots are rejected.
func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	var in map[string]*int
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var out ColumnMapping
	for name, col := range in {
		s, err := ParseSlot(name)
		if err != nil {
			return err
		}
		if col != nil {
			if *col < 0 {
				return fmt.Errorf("negative column %d for slot %q", *col, name)
			}
			out = out.With(s, *col)
		}
	}
	*m = out
	return nil
}
