// internal/routine/scheduler.go
package routine

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tamzrod/routine-runner/internal/gpio"
	"github.com/tamzrod/routine-runner/internal/status"
	"github.com/tamzrod/routine-runner/internal/store"
)

// Store is the part of the persistent store the scheduler reads.
type Store interface {
	ReadMeta() *store.Meta
	ReadRoutineByte(routine, index int) byte
}

const idle = -1

// slot is the execution context of one routine.
// cursor == idle means untriggered; otherwise it is the next byte to fetch.
type slot struct {
	cursor int
	delay  time.Duration
}

// Scheduler advances every routine slot by at most one instruction per tick.
// Tick never blocks and its cost does not depend on routine length.
// Not safe for concurrent use: the owner of the Store must also own the Scheduler.
type Scheduler struct {
	store Store
	pins  gpio.Pins
	log   *slog.Logger

	slots [store.MaxRoutines]slot
}

// New returns a scheduler with every slot idle.
func New(st Store, pins gpio.Pins, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Scheduler{store: st, pins: pins, log: log}
	s.Reset()
	return s
}

// Setup configures trigger pins as inputs, applies the default pin states to
// every valid output pin and idles all slots.
// It fails only when the platform cannot validate pins.
func (s *Scheduler) Setup() error {
	meta := s.store.ReadMeta()

	var triggers [store.MaxPins]bool
	for i, r := range meta.Routines() {
		s.pins.ConfigureInput(r.ButtonPin)
		triggers[r.ButtonPin] = true
		s.log.Debug("trigger configured", "routine", i, "pin", r.ButtonPin)
	}

	applied := 0
	for p := 0; p < store.MaxPins; p++ {
		pin := uint8(p)
		ok, err := s.pins.Valid(pin)
		if err != nil {
			return fmt.Errorf("routine: setup: %w", err)
		}
		// a write to an AVR input pin switches its pull-up, so trigger pins are left alone
		if !ok || triggers[pin] {
			continue
		}
		s.pins.Write(pin, meta.DefaultPinState(pin))
		applied++
	}

	s.Reset()

	s.log.Info("routines ready", "routines", meta.RoutineCount, "default_pins", applied)
	return nil
}

// Reset idles every slot. Call after the routine set changes.
func (s *Scheduler) Reset() {
	for i := range s.slots {
		s.slots[i] = slot{cursor: idle}
	}
}

// Tick advances all slots in ascending order. For each slot the pending step
// runs first, then trigger detection; a slot that finished in this tick is
// not re-triggered until the next one.
func (s *Scheduler) Tick(delta time.Duration) {
	routines := s.store.ReadMeta().Routines()

	for i := range s.slots {
		if s.step(i, routines, delta) {
			continue
		}
		s.detectTrigger(i, routines)
	}
}

// step runs one unit of work for slot i and reports whether the slot finished.
func (s *Scheduler) step(i int, routines []store.RoutineMeta, delta time.Duration) bool {
	sl := &s.slots[i]
	if sl.cursor == idle {
		return false
	}

	// routine table shrank under an active slot
	if i >= len(routines) {
		s.finish(i)
		return true
	}

	length := int(routines[i].Length)
	if sl.cursor >= length {
		s.finish(i)
		return true
	}

	if sl.delay > 0 {
		sl.delay -= delta
		return false
	}

	kind := Decode(s.store.ReadRoutineByte(i, sl.cursor))
	sl.cursor++

	var operand byte
	if kind.HasOperand() {
		if sl.cursor >= length {
			s.log.Warn("truncated instruction", "routine", i, "op", kind)
			s.finish(i)
			return true
		}
		operand = s.store.ReadRoutineByte(i, sl.cursor)
		sl.cursor++
	}

	switch kind {
	case Halt:
		s.finish(i)
		return true
	case PinLow:
		s.pins.Write(operand, false)
	case PinHigh:
		s.pins.Write(operand, true)
	case Delay:
		sl.delay = time.Duration(operand) * time.Second
		s.log.Debug("routine delay", "routine", i, "seconds", operand)
	case Nop:
	case Unknown:
		s.log.Debug("unknown instruction skipped", "routine", i, "at", sl.cursor-1)
	}

	if sl.cursor >= length {
		s.finish(i)
		return true
	}
	return false
}

func (s *Scheduler) finish(i int) {
	s.slots[i] = slot{cursor: idle}
	s.log.Debug("routine finished", "routine", i)
}

func (s *Scheduler) detectTrigger(i int, routines []store.RoutineMeta) {
	if i >= len(routines) || s.slots[i].cursor != idle {
		return
	}
	if !s.pins.Read(routines[i].ButtonPin) {
		return
	}
	s.slots[i] = slot{cursor: 0}
	s.log.Debug("routine triggered", "routine", i, "pin", routines[i].ButtonPin)
}

// State reports the phase of slot i.
func (s *Scheduler) State(i int) status.State {
	if i < 0 || i >= len(s.slots) {
		return status.Idle
	}
	switch sl := s.slots[i]; {
	case sl.cursor == idle:
		return status.Idle
	case sl.delay > 0:
		return status.Delaying
	default:
		return status.Fetching
	}
}

// Snapshot captures every configured slot.
func (s *Scheduler) Snapshot() status.Snapshot {
	routines := s.store.ReadMeta().Routines()

	snap := status.Snapshot{Slots: make([]status.Slot, 0, len(routines))}
	for i, r := range routines {
		sl := s.slots[i]
		out := status.Slot{
			Index:     i,
			ButtonPin: r.ButtonPin,
			State:     s.State(i),
			Cursor:    sl.cursor,
		}
		if sl.delay > 0 {
			out.DelayRemaining = sl.delay
		}
		snap.Slots = append(snap.Slots, out)
	}
	return snap
}
