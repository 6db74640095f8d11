// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Device  DeviceConfig  `yaml:"device" toml:"device"`
	Tick    TickConfig    `yaml:"tick" toml:"tick"`
	GPIO    GPIOConfig    `yaml:"gpio" toml:"gpio"`
	Console ConsoleConfig `yaml:"console" toml:"console"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ---- DEVICE (non-volatile image) ----

type DeviceConfig struct {
	Path        string `yaml:"path" toml:"path"` // empty => RAM only
	Size        int    `yaml:"size" toml:"size"`
	MaxRoutines int    `yaml:"max_routines" toml:"max_routines"`
}

// ---- TICK ----

type TickConfig struct {
	IntervalMs int `yaml:"interval_ms" toml:"interval_ms"`
}

// ---- GPIO ----

const (
	GPIOMemory    = "memory"
	GPIOModbusTCP = "modbus-tcp"
	GPIOModbusRTU = "modbus-rtu"
)

// Pin validation modes. "none" models a target that cannot tell valid pins
// from invalid ones; the controller then only blinks the indicator pin.
const (
	PinValidationTable = "table"
	PinValidationNone  = "none"
)

type GPIOConfig struct {
	Driver        string `yaml:"driver" toml:"driver"`
	PinCount      int    `yaml:"pin_count" toml:"pin_count"`
	PinValidation string `yaml:"pin_validation" toml:"pin_validation"`
	IndicatorPin  *uint8 `yaml:"indicator_pin" toml:"indicator_pin"` // fatal error blink; optional
	BlinkMs       int    `yaml:"blink_ms" toml:"blink_ms"`

	// modbus only
	Endpoint  string       `yaml:"endpoint" toml:"endpoint"`
	UnitID    uint8        `yaml:"unit_id" toml:"unit_id"`
	TimeoutMs int          `yaml:"timeout_ms" toml:"timeout_ms"`
	CoilBase  uint16       `yaml:"coil_base" toml:"coil_base"`
	InputBase uint16       `yaml:"input_base" toml:"input_base"`
	Serial    SerialConfig `yaml:"serial" toml:"serial"` // modbus-rtu
}

// ---- CONSOLE ----

const (
	ConsoleStdio  = "stdio"
	ConsoleSerial = "serial"
	ConsoleNone   = "none"
)

type ConsoleConfig struct {
	Driver string       `yaml:"driver" toml:"driver"`
	Serial SerialConfig `yaml:"serial" toml:"serial"`
}

type SerialConfig struct {
	Address  string `yaml:"address" toml:"address"`
	BaudRate int    `yaml:"baud_rate" toml:"baud_rate"`
	DataBits int    `yaml:"data_bits" toml:"data_bits"`
	StopBits int    `yaml:"stop_bits" toml:"stop_bits"`
	Parity   string `yaml:"parity" toml:"parity"` // N, E or O
}

// ---- LOG ----

type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`     // debug | info | warn | error
	File    string `yaml:"file" toml:"file"`       // optional JSON log file
	Journal bool   `yaml:"journal" toml:"journal"` // also log to the systemd journal
}

// Load reads a YAML config, or TOML when the file ends in .toml.
// Unknown keys are rejected. The result is neither validated nor normalized.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(raw)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes into a Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if len(bytes.TrimSpace(raw)) == 0 {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// ParseTOML decodes TOML bytes into a Config.
func ParseTOML(raw []byte) (*Config, error) {
	var cfg Config

	md, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %s", undecoded[0])
	}
	return &cfg, nil
}
