// internal/routine/instruction.go
package routine

// Opcodes. One byte each; PinLow, PinHigh and Delay take one operand byte.
const (
	OpHalt    byte = 0x00
	OpPinLow  byte = 0x01
	OpPinHigh byte = 0x02
	OpDelay   byte = 0x03
	OpNop     byte = 0xFF
)

// Kind is the decoded form of an opcode.
type Kind uint8

const (
	Halt Kind = iota
	PinLow
	PinHigh
	Delay
	Nop
	// Unknown is any opcode outside the set above. It executes as a
	// zero-cost no-op and consumes only the opcode byte.
	Unknown
)

// Decode maps an opcode byte to its Kind.
func Decode(op byte) Kind {
	switch op {
	case OpHalt:
		return Halt
	case OpPinLow:
		return PinLow
	case OpPinHigh:
		return PinHigh
	case OpDelay:
		return Delay
	case OpNop:
		return Nop
	default:
		return Unknown
	}
}

// HasOperand reports whether the instruction is followed by an operand byte.
func (k Kind) HasOperand() bool {
	return k == PinLow || k == PinHigh || k == Delay
}

// Opcode returns the canonical opcode for k. Unknown has none.
func (k Kind) Opcode() (byte, bool) {
	switch k {
	case Halt:
		return OpHalt, true
	case PinLow:
		return OpPinLow, true
	case PinHigh:
		return OpPinHigh, true
	case Delay:
		return OpDelay, true
	case Nop:
		return OpNop, true
	default:
		return 0, false
	}
}

func (k Kind) String() string {
	switch k {
	case Halt:
		return "HALT"
	case PinLow:
		return "PIN_LOW"
	case PinHigh:
		return "PIN_HIGH"
	case Delay:
		return "DELAY"
	case Nop:
		return "NOP"
	default:
		return "UNKNOWN"
	}
}
