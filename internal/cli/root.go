// internal/cli/root.go
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tamzrod/routine-runner/internal/config"
	"github.com/tamzrod/routine-runner/internal/eeprom"
	"github.com/tamzrod/routine-runner/internal/logging"
	"github.com/tamzrod/routine-runner/internal/store"
)

// NewRootCommand creates the routined command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routined",
		Short: "Button triggered pin routines",
		Long: `routined stores small pin routines in a non-volatile image and runs
them when their button pin goes high. Routines are programmed over a
line based console.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main reports the error
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewDumpCommand())
	cmd.AddCommand(NewReadCommand())
	cmd.AddCommand(NewResetCommand())
	cmd.AddCommand(NewFormatCommand())

	return cmd
}

// loadConfig runs Load, Validate and Normalize in that order.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, func() error, error) {
	return logging.New(w, logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Journal: cfg.Log.Journal,
	})
}

// openStore opens the configured image. Without a path the image lives in
// memory and is lost on exit.
func openStore(cfg *config.Config, log *slog.Logger) (*store.Store, func() error, error) {
	var (
		dev    eeprom.Device
		closer = func() error { return nil }
	)

	if cfg.Device.Path == "" {
		log.Warn("device.path not set, using a volatile image")
		dev = eeprom.NewMemory(cfg.Device.Size)
	} else {
		f, err := eeprom.OpenFile(cfg.Device.Path, cfg.Device.Size, log)
		if err != nil {
			return nil, nil, err
		}
		dev = f
		closer = f.Close
	}

	st, err := store.New(dev, store.Options{MaxRoutines: cfg.Device.MaxRoutines, Logger: log})
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return st, closer, nil
}

// offline prepares config, logger and store for the image tools.
func offline(cmd *cobra.Command, path string) (*store.Store, *slog.Logger, func(), error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Device.Path == "" {
		return nil, nil, nil, fmt.Errorf("device.path is required for %s", cmd.Name())
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}

	st, closeDev, err := openStore(cfg, log)
	if err != nil {
		_ = closeLog()
		return nil, nil, nil, err
	}

	return st, log, func() {
		if err := closeDev(); err != nil {
			log.Error("device close failed", "err", err)
		}
		_ = closeLog()
	}, nil
}
