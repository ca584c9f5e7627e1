package hashwheel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tickwheel/hashwheel"
)

func TestClockNowMonotonic(t *testing.T) {
	t.Parallel()
	assert := require.New(t)

	c := hashwheel.NewClock()
	first := c.Now()
	time.Sleep(5 * time.Millisecond)
	second := c.Now()

	assert.Greater(second, first)
}

func TestClockDeadlineFrom(t *testing.T) {
	t.Parallel()
	assert := require.New(t)

	c := hashwheel.NewClock()
	delay := 50 * time.Millisecond
	before := c.Now()
	deadline := c.DeadlineFrom(delay)

	assert.GreaterOrEqual(deadline, before+delay)
}

func TestCeilMillis(t *testing.T) {
	t.Parallel()
	assert := require.New(t)

	cases := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"exact", 10 * time.Millisecond, 10 * time.Millisecond},
		{"round up", 10*time.Millisecond + time.Microsecond, 11 * time.Millisecond},
		{"zero", 0, 0},
		{"negative exact", -10 * time.Millisecond, -10 * time.Millisecond},
		{"negative rounds toward zero", -10*time.Millisecond + time.Microsecond, -9 * time.Millisecond},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(tc.want, hashwheel.CeilMillis(tc.in))
		})
	}
}
