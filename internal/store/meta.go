// internal/store/meta.go
package store

// RoutineMeta is one entry of the routine table.
type RoutineMeta struct {
	ButtonPin uint8
	Length    uint16
}

// Meta is the decoded header of the image.
// The routine table is owned by the Store; Meta only borrows it, so a Meta
// must not be used after the Store has been re-initialized.
type Meta struct {
	DataVersion      uint8
	DefaultPinStates [PinStateBytes]byte
	RoutineCount     uint8

	table *[MaxRoutines]RoutineMeta
}

// Routines returns the first RoutineCount table entries.
// Elements may be modified in place and flushed with Store.WriteMeta.
func (m *Meta) Routines() []RoutineMeta {
	if m == nil || m.table == nil {
		return nil
	}
	n := int(m.RoutineCount)
	if n > len(m.table) {
		n = len(m.table)
	}
	return m.table[:n]
}

// Routine returns table entry i, or nil when i is outside the fixed capacity.
// Entries past RoutineCount are addressable so callers can grow the table.
func (m *Meta) Routine(i int) *RoutineMeta {
	if m == nil || m.table == nil || i < 0 || i >= len(m.table) {
		return nil
	}
	return &m.table[i]
}

// DefaultPinState reports the power-on level of pin.
func (m *Meta) DefaultPinState(pin uint8) bool {
	return m.DefaultPinStates[pin/8]>>(pin%8)&0x01 == 1
}

// SetDefaultPinState sets the power-on level of pin. Call Store.WriteMeta to persist.
func (m *Meta) SetDefaultPinState(pin uint8, high bool) {
	if high {
		m.DefaultPinStates[pin/8] |= 1 << (pin % 8)
	} else {
		m.DefaultPinStates[pin/8] &^= 1 << (pin % 8)
	}
}
