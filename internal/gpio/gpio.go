// internal/gpio/gpio.go
package gpio

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedTarget means the platform cannot tell valid pins from invalid ones.
// This is a build/config error; the device must not drive outputs blindly.
var ErrUnsupportedTarget = errors.New("gpio: pin validation not supported on this target")

// Pins is the platform contract the interpreter drives.
// Invalid pin indices are ignored by Read/Write/ConfigureInput, never reported.
type Pins interface {
	ConfigureInput(pin uint8)
	Read(pin uint8) bool
	Write(pin uint8, high bool)
	Valid(pin uint8) (bool, error)
}

// Syncer is implemented by drivers that sample inputs in bulk once per tick.
type Syncer interface {
	Sync() error
}

// BlinkPeriod is the half-period of the fatal error indicator.
const BlinkPeriod = 500 * time.Millisecond

// Halt toggles the indicator pin forever. Used when the platform is
// misconfigured and nothing else may run. Returns only when ctx is done.
func Halt(ctx context.Context, p Pins, indicator uint8, period time.Duration) {
	if period <= 0 {
		period = BlinkPeriod
	}
	t := time.NewTicker(period)
	defer t.Stop()

	on := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			on = !on
			p.Write(indicator, on)
		}
	}
}
