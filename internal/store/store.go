// internal/store/store.go
package store

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/tamzrod/routine-runner/internal/eeprom"
)

var (
	ErrMetaNotLoaded   = errors.New("store: meta not loaded")
	ErrRoutineIndex    = errors.New("store: routine index out of bounds")
	ErrByteIndex       = errors.New("store: byte index out of bounds")
	ErrTooManyRoutines = errors.New("store: too many routines")
	ErrCapacity        = errors.New("store: routines do not fit device")
)

// Options tunes a Store.
type Options struct {
	// MaxRoutines caps the routine count; 0 means MaxRoutines.
	MaxRoutines int
	Logger      *slog.Logger
}

// Store owns the image on a Device, the cached Meta and the derived offset table.
// It is not safe for concurrent use; one goroutine owns it.
type Store struct {
	dev   eeprom.Device
	log   *slog.Logger
	limit int

	meta     *Meta
	routines [MaxRoutines]RoutineMeta
	offsets  [MaxRoutines]int
}

// New wraps dev. Nothing is read until the first ReadMeta.
func New(dev eeprom.Device, opts Options) (*Store, error) {
	if dev == nil {
		return nil, errors.New("store: device required")
	}
	if dev.Len() < tableOffset {
		return nil, fmt.Errorf("store: device is %d bytes, need at least %d", dev.Len(), tableOffset)
	}
	limit := opts.MaxRoutines
	if limit == 0 {
		limit = MaxRoutines
	}
	if limit < 0 || limit > MaxRoutines {
		return nil, fmt.Errorf("store: max routines %d out of range 1..%d", limit, MaxRoutines)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dev: dev, log: log, limit: limit}, nil
}

// Limit returns the configured routine count cap.
func (s *Store) Limit() int { return s.limit }

// Capacity returns the device size in bytes.
func (s *Store) Capacity() int { return s.dev.Len() }

// ReadMeta returns the cached Meta, loading it on first use.
// An erased version byte formats the device first.
func (s *Store) ReadMeta() *Meta {
	if s.meta != nil {
		return s.meta
	}

	if s.dev.Read(versionOffset) == eeprom.Erased {
		s.log.Info("uninitialized storage found")
		s.Initialize()
		return s.meta
	}

	return s.load()
}

// Invalidate drops the cached Meta. The next ReadMeta reloads from the device.
func (s *Store) Invalidate() {
	s.meta = nil
}

// Reload invalidates and reads the Meta again.
func (s *Store) Reload() *Meta {
	s.Invalidate()
	return s.ReadMeta()
}

func (s *Store) load() *Meta {
	m := &Meta{table: &s.routines}

	m.DataVersion = s.dev.Read(versionOffset)

	count := s.dev.Read(countOffset)
	if count == eeprom.Erased || int(count) > s.limit {
		s.log.Debug("routine count clamped", "raw", count, "limit", s.limit)
		count = 0
	}
	m.RoutineCount = count

	for i := range m.DefaultPinStates {
		m.DefaultPinStates[i] = s.dev.Read(pinStatesOffset + i)
	}

	for i := 0; i < int(count); i++ {
		addr := tableOffset + i*tableEntrySize
		s.routines[i] = RoutineMeta{
			ButtonPin: s.dev.Read(addr),
			Length:    uint16(s.dev.Read(addr+1))<<8 | uint16(s.dev.Read(addr+2)),
		}
	}
	// entries past count are not on the device
	for i := int(count); i < MaxRoutines; i++ {
		s.routines[i] = RoutineMeta{}
	}

	s.meta = m
	s.computeOffsets()

	s.log.Debug("meta loaded",
		"version", m.DataVersion,
		"routines", m.RoutineCount,
	)

	return m
}

// WriteMeta flushes the cached Meta (mutated in place by the caller) and
// recomputes the offset table. Routine bodies are not moved: after a change
// of count or any length, bodies must be rewritten. ReplaceRoutines does both.
func (s *Store) WriteMeta() error {
	m := s.meta
	if m == nil {
		return ErrMetaNotLoaded
	}
	if int(m.RoutineCount) > s.limit {
		return fmt.Errorf("%w: %d > %d", ErrTooManyRoutines, m.RoutineCount, s.limit)
	}

	s.dev.Write(versionOffset, m.DataVersion)
	s.dev.Write(countOffset, m.RoutineCount)

	for i, b := range m.DefaultPinStates {
		s.dev.Write(pinStatesOffset+i, b)
	}

	for i, r := range m.Routines() {
		addr := tableOffset + i*tableEntrySize
		s.dev.Write(addr, r.ButtonPin)
		s.dev.Write(addr+1, byte(r.Length>>8))
		s.dev.Write(addr+2, byte(r.Length))
	}

	s.computeOffsets()

	s.log.Debug("meta written", "routines", m.RoutineCount)
	return nil
}

func (s *Store) computeOffsets() {
	count := int(s.meta.RoutineCount)
	offset := bodyBase(count)
	for i := range s.offsets {
		if i >= count {
			s.offsets[i] = 0
			continue
		}
		s.offsets[i] = offset
		offset += int(s.routines[i].Length)
	}
}

// Offsets returns a copy of the body offsets of the loaded routines.
func (s *Store) Offsets() []int {
	if s.meta == nil {
		return nil
	}
	out := make([]int, s.meta.RoutineCount)
	copy(out, s.offsets[:])
	return out
}

// BodyBase returns the address of the first body byte, or -1 when no Meta is loaded.
func (s *Store) BodyBase() int {
	if s.meta == nil {
		return -1
	}
	return bodyBase(int(s.meta.RoutineCount))
}

func (s *Store) address(routine, index int) (int, error) {
	if s.meta == nil {
		return 0, ErrMetaNotLoaded
	}
	if routine < 0 || routine >= int(s.meta.RoutineCount) {
		return 0, fmt.Errorf("%w: %d/%d", ErrRoutineIndex, routine, s.meta.RoutineCount)
	}
	length := int(s.routines[routine].Length)
	if index < 0 || index >= length {
		return 0, fmt.Errorf("%w: %d/%d", ErrByteIndex, index, length)
	}
	return s.offsets[routine] + index, nil
}

// ReadRoutineByte returns byte index of routine.
// Invalid access returns 0 and is logged; the device is not touched.
func (s *Store) ReadRoutineByte(routine, index int) byte {
	addr, err := s.address(routine, index)
	if err != nil {
		s.log.Warn("routine read rejected", "routine", routine, "index", index, "err", err)
		return 0
	}
	return s.dev.Read(addr)
}

// WriteRoutineByte stores v at byte index of routine.
// It reports false without writing when the access is out of bounds.
func (s *Store) WriteRoutineByte(routine, index int, v byte) bool {
	addr, err := s.address(routine, index)
	if err != nil {
		s.log.Warn("routine write rejected", "routine", routine, "index", index, "err", err)
		return false
	}
	s.dev.Write(addr, v)
	return true
}

// Initialize erases the device, writes an empty image and reloads the Meta.
func (s *Store) Initialize() {
	s.log.Info("initializing storage", "bytes", s.dev.Len())

	eeprom.Erase(s.dev)

	s.dev.Write(versionOffset, FormatVersion)
	for i := 0; i < PinStateBytes; i++ {
		s.dev.Write(pinStatesOffset+i, 0)
	}
	s.dev.Write(countOffset, 0)

	s.meta = nil
	s.routines = [MaxRoutines]RoutineMeta{}
	s.offsets = [MaxRoutines]int{}

	s.load()
}

// FactoryReset erases the device and leaves it unformatted.
// The next ReadMeta formats it.
func (s *Store) FactoryReset() {
	s.log.Info("factory reset", "bytes", s.dev.Len())
	eeprom.Erase(s.dev)
	s.meta = nil
}

// Dump yields every device byte as two upper-case hex digits, in address order.
func (s *Store) Dump() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < s.dev.Len(); i++ {
			if !yield(fmt.Sprintf("%02X", s.dev.Read(i))) {
				return
			}
		}
	}
}
