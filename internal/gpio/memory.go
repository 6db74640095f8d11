// internal/gpio/memory.go
package gpio

import "sync"

// Memory is a simulated pin bank of Count pins.
// Count <= 0 models a target without pin validation.
type Memory struct {
	mu        sync.Mutex
	count     int
	indicator int
	level     [256]bool
	input     [256]bool
	writes    int
}

func NewMemory(count int) *Memory {
	return &Memory{count: count, indicator: -1}
}

// SetIndicator marks pin as the fault indicator. It accepts writes even
// when the bank cannot validate pins.
func (m *Memory) SetIndicator(pin uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indicator = int(pin)
}

func (m *Memory) inRange(pin uint8) bool {
	return int(pin) < m.count
}

func (m *Memory) ConfigureInput(pin uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inRange(pin) {
		m.input[pin] = true
	}
}

func (m *Memory) Read(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inRange(pin) {
		return false
	}
	return m.level[pin]
}

// Level reports the last level written to pin, including the indicator.
func (m *Memory) Level(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level[pin]
}

func (m *Memory) Write(pin uint8, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inRange(pin) && int(pin) != m.indicator {
		return
	}
	m.level[pin] = high
	m.writes++
}

func (m *Memory) Valid(pin uint8) (bool, error) {
	if m.count <= 0 {
		return false, ErrUnsupportedTarget
	}
	return m.inRange(pin), nil
}

// Set drives a pin from outside, e.g. a simulated button.
func (m *Memory) Set(pin uint8, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inRange(pin) {
		m.level[pin] = high
	}
}

// IsInput reports whether pin was configured as an input.
func (m *Memory) IsInput(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input[pin]
}

// Writes returns the number of accepted Write calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
