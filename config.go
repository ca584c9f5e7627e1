package hashwheel

import (
	"fmt"
	"math/bits"
	"time"
)

const (
	defaultTickInterval          = 100 * time.Millisecond
	defaultBucketCount           = 512
	defaultMaxParallelExpirations = 16

	maxBucketCount           = 1 << 30
	maxPendingTimeoutsCap    = 1_000_000
	maxParallelExpirationsCap = 128
	maxWheelSpan             = 60 * time.Second
)

// config is the immutable-after-build configuration for a Timer. It
// is produced by New from a set of Options and never mutated again;
// every field here has already been validated and clamped.
type config struct {
	tickInterval           time.Duration
	bucketCount            int
	mask                   int
	maxPendingTimeouts     int
	maxParallelExpirations int
}

// Option configures a Timer at construction time. Unrecognized or
// out-of-range values either clamp to the nearest valid value
// (bucket_count rounds up to a power of two) or are rejected outright
// with ErrInvalidConfiguration.
type Option func(*config) error

// WithTickInterval sets the wheel's tick duration. Must be at least
// 1ms and a whole number of milliseconds.
func WithTickInterval(d time.Duration) Option {
	return func(c *config) error {
		if d < time.Millisecond {
			return fmt.Errorf("%w: tick_interval must be >= 1ms, got %s", ErrInvalidConfiguration, d)
		}
		if d%time.Millisecond != 0 {
			return fmt.Errorf("%w: tick_interval must be a whole number of milliseconds, got %s", ErrInvalidConfiguration, d)
		}
		c.tickInterval = d
		return nil
	}
}

// WithBucketCount sets the number of buckets in the wheel. Non-power-
// of-two values are silently rounded up to the next power of two, and
// the result is capped at 2^30.
func WithBucketCount(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: bucket_count must be positive, got %d", ErrInvalidConfiguration, n)
		}
		c.bucketCount = nextPowerOfTwo(n)
		if c.bucketCount > maxBucketCount {
			c.bucketCount = maxBucketCount
		}
		return nil
	}
}

// WithMaxPendingTimeouts caps the number of admitted, not-yet-released
// timeouts. Zero means unlimited. Values above the implementation cap
// are clamped down to it.
func WithMaxPendingTimeouts(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: max_pending_timeouts must be >= 0, got %d", ErrInvalidConfiguration, n)
		}
		if n > maxPendingTimeoutsCap {
			n = maxPendingTimeoutsCap
		}
		c.maxPendingTimeouts = n
		return nil
	}
}

// WithMaxParallelExpirations caps the width of the bounded parallel
// pool used to dispatch one bucket's due timeouts on a single tick.
// Independent of WithMaxPendingTimeouts: the two options appear to
// share a validation message in the source this spec was distilled
// from, but they are validated against distinct caps and enforced
// separately.
func WithMaxParallelExpirations(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max_parallel_expirations must be positive, got %d", ErrInvalidConfiguration, n)
		}
		if n > maxParallelExpirationsCap {
			n = maxParallelExpirationsCap
		}
		c.maxParallelExpirations = n
		return nil
	}
}

// newConfig applies defaults, then opts in order, then validates the
// cross-field invariant (tick * buckets <= 60s total wheel span).
func newConfig(opts ...Option) (config, error) {
	c := config{
		tickInterval:           defaultTickInterval,
		bucketCount:            defaultBucketCount,
		maxPendingTimeouts:     0,
		maxParallelExpirations: defaultMaxParallelExpirations,
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return config{}, err
		}
	}
	c.mask = c.bucketCount - 1

	span := c.tickInterval * time.Duration(c.bucketCount)
	if span > maxWheelSpan {
		return config{}, fmt.Errorf("%w: tick_interval(%s) * bucket_count(%d) = %s exceeds max wheel span %s",
			ErrInvalidConfiguration, c.tickInterval, c.bucketCount, span, maxWheelSpan)
	}

	return c, nil
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
