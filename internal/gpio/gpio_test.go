// internal/gpio/gpio_test.go
package gpio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fake modbus client ----

type coilWrite struct {
	addr  uint16
	value uint16
}

type fakeModbusClient struct {
	modbus.Client

	inputs    []byte
	readErr   error
	readAddr  uint16
	readQty   uint16
	coilCalls []coilWrite
}

func (f *fakeModbusClient) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	f.readAddr, f.readQty = address, quantity
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.inputs, nil
}

func (f *fakeModbusClient) WriteSingleCoil(address, value uint16) ([]byte, error) {
	f.coilCalls = append(f.coilCalls, coilWrite{addr: address, value: value})
	return nil, nil
}

// ---- tests ----

func TestMemory_IgnoresInvalidPins(t *testing.T) {
	m := NewMemory(4)

	m.Write(4, true)
	m.Set(200, true)
	m.ConfigureInput(9)

	assert.False(t, m.Read(4))
	assert.False(t, m.Read(200))
	assert.False(t, m.IsInput(9))
	assert.Equal(t, 0, m.Writes())

	ok, err := m.Valid(3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Valid(4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_UnsupportedTarget(t *testing.T) {
	_, err := NewMemory(0).Valid(1)
	require.ErrorIs(t, err, ErrUnsupportedTarget)
}

func TestHalt_BlinksUntilCancelled(t *testing.T) {
	m := NewMemory(16)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Halt(ctx, m, 13, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Writes() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Halt did not return after cancel")
	}
}

func TestHalt_BlinksIndicatorOnUnsupportedTarget(t *testing.T) {
	m := NewMemory(0)
	m.SetIndicator(13)

	_, err := m.Valid(13)
	require.ErrorIs(t, err, ErrUnsupportedTarget)

	m.Write(3, true)
	assert.Equal(t, 0, m.Writes(), "only the indicator is writable")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Halt(ctx, m, 13, time.Millisecond)
		close(done)
	}()

	sawHigh := false
	require.Eventually(t, func() bool {
		if m.Level(13) {
			sawHigh = true
		}
		return sawHigh && m.Writes() >= 3
	}, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestModbus_SyncAndRead(t *testing.T) {
	fake := &fakeModbusClient{inputs: []byte{0b0000_0101, 0b0000_0001}}
	m := newModbus(fake, nil, ModbusConfig{PinCount: 9, InputBase: 100}, nil)

	assert.False(t, m.Read(0), "nothing sampled yet")

	require.NoError(t, m.Sync())
	assert.Equal(t, uint16(100), fake.readAddr)
	assert.Equal(t, uint16(9), fake.readQty)

	assert.True(t, m.Read(0))
	assert.False(t, m.Read(1))
	assert.True(t, m.Read(2))
	assert.True(t, m.Read(8))
	assert.False(t, m.Read(9))
}

func TestModbus_SyncFailureKeepsSample(t *testing.T) {
	fake := &fakeModbusClient{inputs: []byte{0x01}}
	m := newModbus(fake, nil, ModbusConfig{PinCount: 8}, nil)
	require.NoError(t, m.Sync())

	fake.readErr = errors.New("timeout")
	require.Error(t, m.Sync())
	assert.True(t, m.Read(0))

	fake.readErr = nil
	fake.inputs = nil
	require.Error(t, m.Sync(), "short payload")
	assert.True(t, m.Read(0))
}

func TestModbus_WriteCoils(t *testing.T) {
	fake := &fakeModbusClient{}
	m := newModbus(fake, nil, ModbusConfig{PinCount: 8, CoilBase: 16}, nil)

	m.Write(5, true)
	m.Write(5, false)
	m.Write(8, true) // out of range, ignored

	require.Len(t, fake.coilCalls, 2)
	assert.Equal(t, coilWrite{addr: 21, value: 0xFF00}, fake.coilCalls[0])
	assert.Equal(t, coilWrite{addr: 21, value: 0x0000}, fake.coilCalls[1])
}

func TestModbus_IndicatorWritableWithoutPins(t *testing.T) {
	fake := &fakeModbusClient{}
	ind := uint8(13)
	m := newModbus(fake, nil, ModbusConfig{CoilBase: 100, Indicator: &ind}, nil)

	_, err := m.Valid(13)
	require.ErrorIs(t, err, ErrUnsupportedTarget)

	m.Write(2, true)
	m.Write(13, true)

	require.Len(t, fake.coilCalls, 1)
	assert.Equal(t, coilWrite{addr: 113, value: 0xFF00}, fake.coilCalls[0])
}

func TestModbus_Valid(t *testing.T) {
	m := newModbus(&fakeModbusClient{}, nil, ModbusConfig{PinCount: 8}, nil)
	ok, err := m.Valid(7)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = newModbus(&fakeModbusClient{}, nil, ModbusConfig{}, nil).Valid(0)
	require.ErrorIs(t, err, ErrUnsupportedTarget)
}

func TestNewModbus_RequiresEndpoint(t *testing.T) {
	_, err := NewModbus(ModbusConfig{}, nil)
	require.Error(t, err)
}

func TestNewModbus_RejectsTransport(t *testing.T) {
	_, err := NewModbus(ModbusConfig{Endpoint: "x", Transport: "udp"}, nil)
	require.Error(t, err)
}

func TestUnpackBits(t *testing.T) {
	assert.Equal(t, []bool{true, false, false, false, false, false, false, true, true},
		unpackBits([]byte{0x81, 0x01}, 9))
	assert.Equal(t, []bool{false, false}, unpackBits(nil, 2))
}
