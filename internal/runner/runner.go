// internal/runner/runner.go
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tamzrod/routine-runner/internal/gpio"
)

// Ticker is advanced once per control period with the elapsed time.
type Ticker interface {
	Tick(delta time.Duration)
}

// LineHandler executes one console line.
type LineHandler interface {
	Handle(line string) error
}

// Config is the minimal runtime config the runner needs.
type Config struct {
	Interval time.Duration
}

// Runner is the control loop. It is the only goroutine that touches the
// store and the scheduler: console lines and ticks are serialized here.
type Runner struct {
	cfg     Config
	sched   Ticker
	inputs  gpio.Syncer
	console LineHandler
	log     *slog.Logger

	inputsOK bool
}

// New creates a runner. inputs and console may be nil.
func New(cfg Config, sched Ticker, inputs gpio.Syncer, console LineHandler, log *slog.Logger) (*Runner, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("runner: interval must be > 0")
	}
	if sched == nil {
		return nil, errors.New("runner: scheduler required")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		cfg:      cfg,
		sched:    sched,
		inputs:   inputs,
		console:  console,
		log:      log,
		inputsOK: true,
	}, nil
}

// Run ticks until ctx is done. Lines arriving on lines are handled between
// ticks; a closed lines channel just stops console input.
func (r *Runner) Run(ctx context.Context, lines <-chan string) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if r.console == nil {
				continue
			}
			if err := r.console.Handle(line); err != nil {
				return fmt.Errorf("runner: console: %w", err)
			}

		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			r.Step(delta)
		}
	}
}

// Step samples inputs and advances the scheduler once.
// A failed input sample keeps the previous levels; only transitions are logged.
func (r *Runner) Step(delta time.Duration) {
	if r.inputs != nil {
		err := r.inputs.Sync()
		switch {
		case err != nil && r.inputsOK:
			r.log.Warn("input sync failed", "err", err)
			r.inputsOK = false
		case err == nil && !r.inputsOK:
			r.log.Info("input sync recovered")
			r.inputsOK = true
		}
	}

	r.sched.Tick(delta)
}

// ReadLines forwards lines from src to out until src ends or ctx is done,
// then closes out. It is meant to run on its own goroutine.
func ReadLines(ctx context.Context, src io.Reader, out chan<- string) error {
	defer close(out)

	sc := bufio.NewScanner(src)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- sc.Text():
		}
	}
	return sc.Err()
}
