// internal/config/normalize.go
package config

// Defaults. An Arduino Uno class target: 1 KiB EEPROM, 20 pins, 9600 baud.
const (
	DefaultDeviceSize  = 1024
	DefaultMaxRoutines = 16
	DefaultIntervalMs  = 10
	DefaultPinCount    = 20
	DefaultTimeoutMs   = 1000
	DefaultBlinkMs     = 500
	DefaultBaudRate    = 9600
	DefaultLogLevel    = "info"
)

// Normalize fills defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Device.Size == 0 {
		cfg.Device.Size = DefaultDeviceSize
	}
	if cfg.Device.MaxRoutines == 0 {
		cfg.Device.MaxRoutines = DefaultMaxRoutines
	}

	if cfg.Tick.IntervalMs == 0 {
		cfg.Tick.IntervalMs = DefaultIntervalMs
	}

	if cfg.GPIO.Driver == "" {
		cfg.GPIO.Driver = GPIOMemory
	}
	if cfg.GPIO.PinCount == 0 {
		cfg.GPIO.PinCount = DefaultPinCount
	}
	if cfg.GPIO.PinValidation == "" {
		cfg.GPIO.PinValidation = PinValidationTable
	}
	if cfg.GPIO.BlinkMs == 0 {
		cfg.GPIO.BlinkMs = DefaultBlinkMs
	}
	if cfg.GPIO.TimeoutMs == 0 {
		cfg.GPIO.TimeoutMs = DefaultTimeoutMs
	}
	normalizeSerial(&cfg.GPIO.Serial)

	if cfg.Console.Driver == "" {
		cfg.Console.Driver = ConsoleStdio
	}
	normalizeSerial(&cfg.Console.Serial)

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func normalizeSerial(s *SerialConfig) {
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.StopBits == 0 {
		s.StopBits = 1
	}
	if s.Parity == "" {
		s.Parity = "N"
	}
}
