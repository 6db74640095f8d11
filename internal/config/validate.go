// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/routine-runner/internal/store"
)

// Validate checks configuration correctness.
// It performs declarative validation only; zero values mean "default".
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if cfg.Device.Size < 0 {
		return fmt.Errorf("device.size must be >= 0, got %d", cfg.Device.Size)
	}
	if cfg.Device.Size != 0 && cfg.Device.Size < store.Footprint() {
		return fmt.Errorf("device.size %d is smaller than the header (%d bytes)", cfg.Device.Size, store.Footprint())
	}
	if cfg.Device.MaxRoutines < 0 || cfg.Device.MaxRoutines > store.MaxRoutines {
		return fmt.Errorf("device.max_routines must be within 0..%d, got %d", store.MaxRoutines, cfg.Device.MaxRoutines)
	}

	// ------------------------------------------------------------
	// TICK
	// ------------------------------------------------------------

	if cfg.Tick.IntervalMs < 0 {
		return fmt.Errorf("tick.interval_ms must be >= 0, got %d", cfg.Tick.IntervalMs)
	}

	// ------------------------------------------------------------
	// GPIO
	// ------------------------------------------------------------

	g := cfg.GPIO
	switch g.Driver {
	case "", GPIOMemory:
	case GPIOModbusTCP, GPIOModbusRTU:
		if g.Endpoint == "" {
			return fmt.Errorf("gpio.endpoint is required for driver %q", g.Driver)
		}
	default:
		return fmt.Errorf("gpio.driver %q is not one of %s, %s, %s", g.Driver, GPIOMemory, GPIOModbusTCP, GPIOModbusRTU)
	}
	if g.PinCount < 0 || g.PinCount > store.MaxPins {
		return fmt.Errorf("gpio.pin_count must be within 0..%d, got %d", store.MaxPins, g.PinCount)
	}
	switch g.PinValidation {
	case "", PinValidationTable, PinValidationNone:
	default:
		return fmt.Errorf("gpio.pin_validation %q is not one of %s, %s", g.PinValidation, PinValidationTable, PinValidationNone)
	}
	if g.BlinkMs < 0 {
		return fmt.Errorf("gpio.blink_ms must be >= 0, got %d", g.BlinkMs)
	}
	if g.IndicatorPin != nil && g.PinValidation != PinValidationNone && g.PinCount != 0 && int(*g.IndicatorPin) >= g.PinCount {
		return fmt.Errorf("gpio.indicator_pin %d is outside pin_count %d", *g.IndicatorPin, g.PinCount)
	}
	if g.TimeoutMs < 0 {
		return fmt.Errorf("gpio.timeout_ms must be >= 0, got %d", g.TimeoutMs)
	}
	if g.Driver == GPIOModbusRTU {
		if err := validateSerial("gpio.serial", g.Serial); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// CONSOLE
	// ------------------------------------------------------------

	switch cfg.Console.Driver {
	case "", ConsoleStdio, ConsoleNone:
	case ConsoleSerial:
		if cfg.Console.Serial.Address == "" {
			return fmt.Errorf("console.serial.address is required for driver %q", ConsoleSerial)
		}
		if err := validateSerial("console.serial", cfg.Console.Serial); err != nil {
			return err
		}
	default:
		return fmt.Errorf("console.driver %q is not one of %s, %s, %s", cfg.Console.Driver, ConsoleStdio, ConsoleSerial, ConsoleNone)
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}

	return nil
}

func validateSerial(field string, s SerialConfig) error {
	if s.BaudRate < 0 {
		return fmt.Errorf("%s.baud_rate must be >= 0, got %d", field, s.BaudRate)
	}
	switch s.DataBits {
	case 0, 5, 6, 7, 8:
	default:
		return fmt.Errorf("%s.data_bits must be 5..8, got %d", field, s.DataBits)
	}
	switch s.StopBits {
	case 0, 1, 2:
	default:
		return fmt.Errorf("%s.stop_bits must be 1 or 2, got %d", field, s.StopBits)
	}
	switch s.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("%s.parity must be N, E or O, got %q", field, s.Parity)
	}
	return nil
}
