// internal/cli/run.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goburrow/serial"
	"github.com/spf13/cobra"

	"github.com/tamzrod/routine-runner/internal/config"
	"github.com/tamzrod/routine-runner/internal/console"
	"github.com/tamzrod/routine-runner/internal/gpio"
	"github.com/tamzrod/routine-runner/internal/routine"
	"github.com/tamzrod/routine-runner/internal/runner"
	"github.com/tamzrod/routine-runner/internal/store"
)

// NewRunCommand starts the controller.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run routines and serve the console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}

			log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), log)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer, log *slog.Logger) error {
	// --------------------
	// Storage
	// --------------------

	st, closeDev, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDev(); err != nil {
			log.Error("device close failed", "err", err)
		}
	}()

	// --------------------
	// Pins
	// --------------------

	pins, syncer, closePins, err := buildPins(cfg.GPIO, log)
	if err != nil {
		return err
	}
	defer closePins()

	return serve(ctx, cfg, st, pins, syncer, stdin, stdout, log)
}

// serve runs the controller on an opened store and pin driver until ctx is
// done. On a target without pin validation it only blinks the indicator.
func serve(
	ctx context.Context,
	cfg *config.Config,
	st *store.Store,
	pins gpio.Pins,
	syncer gpio.Syncer,
	stdin io.Reader,
	stdout io.Writer,
	log *slog.Logger,
) error {
	sched := routine.New(st, pins, log)
	if err := sched.Setup(); err != nil {
		if errors.Is(err, gpio.ErrUnsupportedTarget) && cfg.GPIO.IndicatorPin != nil {
			log.Error("platform misconfigured, halting", "err", err, "indicator", *cfg.GPIO.IndicatorPin)
			gpio.Halt(ctx, pins, *cfg.GPIO.IndicatorPin, time.Duration(cfg.GPIO.BlinkMs)*time.Millisecond)
		}
		return err
	}

	// --------------------
	// Console
	// --------------------

	var (
		handler runner.LineHandler
		lines   chan string
	)

	if cfg.Console.Driver != config.ConsoleNone {
		in, out, closeConsole, err := openConsole(cfg.Console, stdin, stdout)
		if err != nil {
			return err
		}
		defer closeConsole()

		h := console.New(st, sched, out, log)
		if err := h.Banner(); err != nil {
			return fmt.Errorf("console banner: %w", err)
		}
		handler = h

		lines = make(chan string)
		go func() {
			if err := runner.ReadLines(ctx, in, lines); err != nil && ctx.Err() == nil {
				log.Warn("console input stopped", "err", err)
			}
		}()
	}

	// --------------------
	// Tick loop
	// --------------------

	r, err := runner.New(
		runner.Config{Interval: time.Duration(cfg.Tick.IntervalMs) * time.Millisecond},
		sched, syncer, handler, log,
	)
	if err != nil {
		return err
	}

	log.Info("running", "interval_ms", cfg.Tick.IntervalMs, "gpio", cfg.GPIO.Driver, "console", cfg.Console.Driver)

	err = r.Run(ctx, lines)
	if ctx.Err() != nil {
		log.Info("stopped")
		return nil
	}
	return err
}

// buildPins returns the pin driver, its input syncer (nil when inputs are
// live) and a close func.
func buildPins(g config.GPIOConfig, log *slog.Logger) (gpio.Pins, gpio.Syncer, func(), error) {
	count := g.PinCount
	if g.PinValidation == config.PinValidationNone {
		count = 0
	}

	switch g.Driver {
	case config.GPIOModbusTCP, config.GPIOModbusRTU:
		transport := "tcp"
		if g.Driver == config.GPIOModbusRTU {
			transport = "rtu"
		}

		m, err := gpio.NewModbus(gpio.ModbusConfig{
			Transport: transport,
			Endpoint:  g.Endpoint,
			UnitID:    g.UnitID,
			Timeout:   time.Duration(g.TimeoutMs) * time.Millisecond,
			PinCount:  count,
			Indicator: g.IndicatorPin,
			CoilBase:  g.CoilBase,
			InputBase: g.InputBase,
			BaudRate:  g.Serial.BaudRate,
			DataBits:  g.Serial.DataBits,
			StopBits:  g.Serial.StopBits,
			Parity:    g.Serial.Parity,
		}, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return m, m, func() {
			if err := m.Close(); err != nil {
				log.Warn("gpio close failed", "err", err)
			}
		}, nil

	default:
		m := gpio.NewMemory(count)
		if g.IndicatorPin != nil {
			m.SetIndicator(*g.IndicatorPin)
		}
		return m, nil, func() {}, nil
	}
}

// openConsole returns the console input and output streams.
func openConsole(c config.ConsoleConfig, stdin io.Reader, stdout io.Writer) (io.Reader, io.Writer, func(), error) {
	if c.Driver != config.ConsoleSerial {
		return stdin, stdout, func() {}, nil
	}

	// zero timeout: reads block until a byte arrives
	port, err := serial.Open(&serial.Config{
		Address:  c.Serial.Address,
		BaudRate: c.Serial.BaudRate,
		DataBits: c.Serial.DataBits,
		StopBits: c.Serial.StopBits,
		Parity:   c.Serial.Parity,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("console: open %s: %w", c.Serial.Address, err)
	}
	return port, port, func() { _ = port.Close() }, nil
}
