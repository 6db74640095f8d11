// internal/status/state.go
package status

// State is the externally reported phase of a routine slot.
// Values are part of the console protocol and MUST NOT be renumbered.
type State uint8

const (
	// Idle: waiting for the trigger pin.
	Idle State = 0
	// Fetching: next tick executes one instruction.
	Fetching State = 1
	// Delaying: a delay countdown is running.
	Delaying State = 2
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Delaying:
		return "delaying"
	default:
		return "unknown"
	}
}
