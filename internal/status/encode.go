// internal/status/encode.go
package status

import (
	"fmt"
	"strings"
)

// Encode renders a snapshot as one console line, e.g.
//
//	0:idle 1:delaying@4/1500ms 2:fetching@2
//
// No IO. No side effects.
func Encode(s Snapshot) string {
	if len(s.Slots) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(s.Slots))
	for _, sl := range s.Slots {
		switch sl.State {
		case Idle:
			parts = append(parts, fmt.Sprintf("%d:%s", sl.Index, sl.State))
		case Delaying:
			parts = append(parts, fmt.Sprintf("%d:%s@%d/%dms", sl.Index, sl.State, sl.Cursor, sl.DelayRemaining.Milliseconds()))
		default:
			parts = append(parts, fmt.Sprintf("%d:%s@%d", sl.Index, sl.State, sl.Cursor))
		}
	}
	return strings.Join(parts, " ")
}
