// internal/status/snapshot.go
package status

import "time"

// Slot is the runtime state of one routine slot at a point in time.
type Slot struct {
	Index          int
	ButtonPin      uint8
	State          State
	Cursor         int
	DelayRemaining time.Duration
}

// Snapshot covers every configured slot, in index order.
// It contains no logic and is safe to hand to another goroutine.
type Snapshot struct {
	Slots []Slot
}
