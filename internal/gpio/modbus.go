// internal/gpio/modbus.go
package gpio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusConfig describes a remote I/O module.
// Outputs map to coils, inputs to discrete inputs, pin N at base+N.
type ModbusConfig struct {
	Transport string // "tcp" or "rtu"
	Endpoint  string // host:port for tcp, serial device for rtu
	UnitID    uint8
	Timeout   time.Duration
	PinCount  int

	CoilBase  uint16
	InputBase uint16

	// Indicator is a coil that is written even when PinCount is 0.
	Indicator *uint8

	// rtu only
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

type modbusHandler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Modbus drives pins on a Modbus slave.
// Inputs are sampled as one block in Sync; Read returns the last sample.
// Requests are serialized.
type Modbus struct {
	mu        sync.Mutex
	closer    io.Closer
	client    modbus.Client
	log       *slog.Logger
	count     int
	indicator int
	coils     uint16
	inputs    uint16
	sampled   []bool
}

// NewModbus connects to the module. One connection attempt, no retries.
func NewModbus(cfg ModbusConfig, log *slog.Logger) (*Modbus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("gpio modbus: endpoint required")
	}

	var h modbusHandler
	switch cfg.Transport {
	case "", "tcp":
		th := modbus.NewTCPClientHandler(cfg.Endpoint)
		th.Timeout = cfg.Timeout
		th.SlaveId = cfg.UnitID
		h = th
	case "rtu":
		rh := modbus.NewRTUClientHandler(cfg.Endpoint)
		rh.Timeout = cfg.Timeout
		rh.SlaveId = cfg.UnitID
		rh.BaudRate = cfg.BaudRate
		rh.DataBits = cfg.DataBits
		rh.StopBits = cfg.StopBits
		rh.Parity = cfg.Parity
		h = rh
	default:
		return nil, fmt.Errorf("gpio modbus: unsupported transport %q", cfg.Transport)
	}

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("gpio modbus: connect %s: %w", cfg.Endpoint, err)
	}

	return newModbus(modbus.NewClient(h), h, cfg, log), nil
}

func newModbus(client modbus.Client, closer io.Closer, cfg ModbusConfig, log *slog.Logger) *Modbus {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	count := cfg.PinCount
	if count > 256 {
		count = 256
	}
	indicator := -1
	if cfg.Indicator != nil {
		indicator = int(*cfg.Indicator)
	}
	return &Modbus{
		closer:    closer,
		client:    client,
		log:       log,
		count:     count,
		indicator: indicator,
		coils:     cfg.CoilBase,
		inputs:    cfg.InputBase,
		sampled:   make([]bool, max(count, 0)),
	}
}

// Close closes the transport.
func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// ConfigureInput is a no-op: the direction of remote points is fixed by the module.
func (m *Modbus) ConfigureInput(pin uint8) {}

func (m *Modbus) Read(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(pin) >= len(m.sampled) {
		return false
	}
	return m.sampled[pin]
}

func (m *Modbus) Write(pin uint8, high bool) {
	if int(pin) >= m.count && int(pin) != m.indicator {
		return
	}

	var value uint16
	if high {
		value = 0xFF00
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.client.WriteSingleCoil(m.coils+uint16(pin), value); err != nil {
		m.log.Error("coil write failed", "pin", pin, "high", high, "err", err)
	}
}

func (m *Modbus) Valid(pin uint8) (bool, error) {
	if m.count <= 0 {
		return false, ErrUnsupportedTarget
	}
	return int(pin) < m.count, nil
}

// Sync reads all discrete inputs in one request.
// All-or-nothing: on failure the previous sample is kept.
func (m *Modbus) Sync() error {
	if m.count <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.client.ReadDiscreteInputs(m.inputs, uint16(m.count))
	if err != nil {
		return fmt.Errorf("gpio modbus: read inputs: %w", err)
	}
	if len(data) < (m.count+7)/8 {
		return fmt.Errorf("gpio modbus: short input payload: %d bytes for %d inputs", len(data), m.count)
	}

	m.sampled = unpackBits(data, m.count)
	return nil
}

// unpackBits expands a Modbus bit payload, LSB of byte 0 first.
func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			break
		}
		out[i] = data[byteIdx]&(1<<(i%8)) != 0
	}
	return out
}
