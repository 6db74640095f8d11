// internal/console/codec.go
package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/routine-runner/internal/routine"
	"github.com/tamzrod/routine-runner/internal/store"
)

// Textual instruction encoding used by the write and read commands.
//
//	h      HALT
//	n      NOP
//	Lppp   PIN_LOW  pin ppp
//	Hppp   PIN_HIGH pin ppp
//	dsss   DELAY    sss seconds
//	?      unknown opcode (read only)
const (
	letterHalt    = 'h'
	letterNop     = 'n'
	letterPinLow  = 'L'
	letterPinHigh = 'H'
	letterDelay   = 'd'
	letterUnknown = '?'
)

// Field widths, in decimal digits.
const (
	countDigits   = 2
	pinDigits     = 3
	lengthDigits  = 3
	operandDigits = 3
)

// scanner walks a command line. Whitespace between fields is ignored.
type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipSpace() {
	for sc.pos < len(sc.s) && strings.IndexByte(" \t\r\n", sc.s[sc.pos]) >= 0 {
		sc.pos++
	}
}

func (sc *scanner) done() bool {
	sc.skipSpace()
	return sc.pos >= len(sc.s)
}

func (sc *scanner) next() (byte, error) {
	sc.skipSpace()
	if sc.pos >= len(sc.s) {
		return 0, errors.New("unexpected end of line")
	}
	c := sc.s[sc.pos]
	sc.pos++
	return c, nil
}

// readInt reads exactly digits decimal digits.
func (sc *scanner) readInt(digits int) (int, error) {
	v := 0
	for i := 0; i < digits; i++ {
		c, err := sc.next()
		if err != nil {
			return 0, err
		}
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("expected digit at %d, got %q", sc.pos-1, c)
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}

func (sc *scanner) readByte(digits int, what string) (byte, error) {
	v, err := sc.readInt(digits)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	if v > 0xFF {
		return 0, fmt.Errorf("%s %d out of range", what, v)
	}
	return byte(v), nil
}

// ParseRoutines decodes the payload of a write command:
// NN, then PPP LLL per routine, then each routine's instructions in order.
// Every routine's instructions must add up to exactly its declared length.
func ParseRoutines(payload string) ([]store.Routine, error) {
	sc := &scanner{s: payload}

	count, err := sc.readInt(countDigits)
	if err != nil {
		return nil, fmt.Errorf("routine count: %w", err)
	}

	routines := make([]store.Routine, count)
	lengths := make([]int, count)
	for i := 0; i < count; i++ {
		pin, err := sc.readByte(pinDigits, fmt.Sprintf("routine %d button pin", i))
		if err != nil {
			return nil, err
		}
		length, err := sc.readInt(lengthDigits)
		if err != nil {
			return nil, fmt.Errorf("routine %d length: %w", i, err)
		}
		routines[i].ButtonPin = pin
		lengths[i] = length
	}

	for i := range routines {
		body := make([]byte, 0, lengths[i])
		for len(body) < lengths[i] {
			c, err := sc.next()
			if err != nil {
				return nil, fmt.Errorf("routine %d instruction %d: %w", i, len(body), err)
			}

			switch c {
			case letterHalt:
				body = append(body, routine.OpHalt)
			case letterNop:
				body = append(body, routine.OpNop)
			case letterPinLow, letterPinHigh, letterDelay:
				arg, err := sc.readByte(operandDigits, fmt.Sprintf("routine %d operand", i))
				if err != nil {
					return nil, err
				}
				body = append(body, opcodeFor(c), arg)
			default:
				return nil, fmt.Errorf("routine %d: unknown instruction %q", i, c)
			}
		}
		if len(body) != lengths[i] {
			return nil, fmt.Errorf("routine %d: instructions are %d bytes, length is %d", i, len(body), lengths[i])
		}
		routines[i].Body = body
	}

	if !sc.done() {
		return nil, fmt.Errorf("trailing input at %d", sc.pos)
	}

	return routines, nil
}

func opcodeFor(letter byte) byte {
	switch letter {
	case letterPinLow:
		return routine.OpPinLow
	case letterPinHigh:
		return routine.OpPinHigh
	default:
		return routine.OpDelay
	}
}

// RoutineReader is the read side of the store used for encoding.
type RoutineReader interface {
	ReadMeta() *store.Meta
	ReadRoutineByte(routine, index int) byte
}

// EncodeRoutines renders the stored routine set in the write-command format.
// The output can be fed back as a write unless a body holds an unknown
// opcode, written as '?', or ends in an opcode whose operand is missing,
// written with operand 000.
func EncodeRoutines(st RoutineReader) string {
	meta := st.ReadMeta()
	routines := meta.Routines()

	var b strings.Builder
	fmt.Fprintf(&b, "%0*d", countDigits, len(routines))
	for _, r := range routines {
		fmt.Fprintf(&b, "%0*d%0*d", pinDigits, r.ButtonPin, lengthDigits, r.Length)
	}

	for i, r := range routines {
		length := int(r.Length)
		for j := 0; j < length; {
			kind := routine.Decode(st.ReadRoutineByte(i, j))
			j++

			if kind.HasOperand() && j >= length {
				b.WriteByte(letterFor(kind))
				fmt.Fprintf(&b, "%0*d", operandDigits, 0)
				continue
			}

			switch kind {
			case routine.Halt:
				b.WriteByte(letterHalt)
			case routine.Nop:
				b.WriteByte(letterNop)
			case routine.PinLow, routine.PinHigh, routine.Delay:
				b.WriteByte(letterFor(kind))
				fmt.Fprintf(&b, "%0*d", operandDigits, st.ReadRoutineByte(i, j))
				j++
			default:
				b.WriteByte(letterUnknown)
			}
		}
	}

	return b.String()
}

func letterFor(k routine.Kind) byte {
	switch k {
	case routine.PinLow:
		return letterPinLow
	case routine.PinHigh:
		return letterPinHigh
	default:
		return letterDelay
	}
}
