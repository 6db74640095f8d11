// internal/eeprom/memory.go
package eeprom

// Memory is a RAM-backed device. Contents are lost with the process.
type Memory struct {
	cells []byte
}

// NewMemory allocates a device of size bytes, all erased.
func NewMemory(size int) *Memory {
	if size < 0 {
		size = 0
	}
	m := &Memory{cells: make([]byte, size)}
	for i := range m.cells {
		m.cells[i] = Erased
	}
	return m
}

func (m *Memory) Len() int { return len(m.cells) }

func (m *Memory) Read(addr int) byte {
	if addr < 0 || addr >= len(m.cells) {
		return Erased
	}
	return m.cells[addr]
}

func (m *Memory) Write(addr int, v byte) {
	if addr < 0 || addr >= len(m.cells) {
		return
	}
	m.cells[addr] = v
}
