package hashwheel

import (
	"time"

	"github.com/aristanetworks/goarista/monotime"
)

// Clock is a monotonic elapsed-time source. It captures a fixed
// reference point at construction and never regresses, unlike
// wall-clock time which can step backwards across NTP corrections.
//
// All timer deadlines are expressed as durations relative to a
// Clock's reference point, never as absolute wall-clock time.
type Clock struct {
	reference uint64
}

// NewClock returns a Clock referenced to the current monotonic
// instant.
func NewClock() *Clock {
	return &Clock{reference: monotime.Now()}
}

// Now returns the elapsed duration since the Clock's reference point.
func (c *Clock) Now() time.Duration {
	return time.Duration(monotime.Now() - c.reference)
}

// DeadlineFrom returns the deadline, relative to the Clock's
// reference point, for an event delay after now.
func (c *Clock) DeadlineFrom(delay time.Duration) time.Duration {
	return c.Now() + delay
}

// CeilMillis rounds d up to the next whole millisecond, toward
// positive infinity (e.g. -1500us rounds to -1ms, not -2ms).
func CeilMillis(d time.Duration) time.Duration {
	rem := d % time.Millisecond
	if rem == 0 {
		return d
	}
	if d < 0 {
		// Truncating division already rounds a negative dividend toward
		// zero, which is the ceiling direction here; no adjustment needed.
		return d - rem
	}
	return d - rem + time.Millisecond
}
