// internal/store/replace.go
package store

import (
	"fmt"
	"math"
)

// Routine is one routine as supplied by a programmer: trigger pin and bytecode.
type Routine struct {
	ButtonPin uint8
	Body      []byte
}

// ReplaceRoutines swaps the whole routine set in one call: table, offsets and
// bodies. Everything is validated before the first byte is written, so a
// rejected set leaves the image untouched.
func (s *Store) ReplaceRoutines(routines []Routine) error {
	if len(routines) > s.limit {
		return fmt.Errorf("%w: %d > %d", ErrTooManyRoutines, len(routines), s.limit)
	}

	lengths := make([]int, len(routines))
	for i, r := range routines {
		if len(r.Body) > math.MaxUint16 {
			return fmt.Errorf("store: routine %d body is %d bytes, max %d", i, len(r.Body), math.MaxUint16)
		}
		lengths[i] = len(r.Body)
	}
	if need := Footprint(lengths...); need > s.dev.Len() {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrCapacity, need, s.dev.Len())
	}

	m := s.ReadMeta()
	m.RoutineCount = uint8(len(routines))
	for i := range s.routines {
		if i < len(routines) {
			s.routines[i] = RoutineMeta{
				ButtonPin: routines[i].ButtonPin,
				Length:    uint16(len(routines[i].Body)),
			}
			continue
		}
		s.routines[i] = RoutineMeta{}
	}

	if err := s.WriteMeta(); err != nil {
		return err
	}

	for i, r := range routines {
		for j, b := range r.Body {
			if !s.WriteRoutineByte(i, j, b) {
				return fmt.Errorf("store: routine %d byte %d rejected", i, j)
			}
		}
	}

	s.log.Info("routines replaced", "count", len(routines), "bytes", Footprint(lengths...))
	return nil
}

// SetDefaultPinStates replaces the power-on pin bitmap and persists it.
func (s *Store) SetDefaultPinStates(states [PinStateBytes]byte) error {
	m := s.ReadMeta()
	m.DefaultPinStates = states
	return s.WriteMeta()
}

// RoutineBody copies the bytecode of routine i through the bounds-checked accessor.
func (s *Store) RoutineBody(i int) ([]byte, error) {
	m := s.ReadMeta()
	if i < 0 || i >= int(m.RoutineCount) {
		return nil, fmt.Errorf("%w: %d/%d", ErrRoutineIndex, i, m.RoutineCount)
	}
	body := make([]byte, m.Routines()[i].Length)
	for j := range body {
		body[j] = s.ReadRoutineByte(i, j)
	}
	return body, nil
}
