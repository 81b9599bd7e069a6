package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	t.Run("default schedule", func(t *testing.T) {
		t.Parallel()

		b := DefaultBackoff()
		expected := []time.Duration{
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			30 * time.Second,
			30 * time.Second,
		}
		for i, want := range expected {
			assert.Equal(t, want, b.NextInterval(i+1), "attempt %d", i+1)
		}
	})

	t.Run("non-positive attempt", func(t *testing.T) {
		t.Parallel()

		b := DefaultBackoff()
		assert.Zero(t, b.NextInterval(0))
		assert.Zero(t, b.NextInterval(-3))
	})

	t.Run("zero value uses defaults", func(t *testing.T) {
		t.Parallel()

		var b ExponentialBackoff
		assert.Equal(t, 2*time.Second, b.NextInterval(1))
		assert.Equal(t, 30*time.Second, b.NextInterval(20))
	})

	t.Run("jitter stays within ceiling", func(t *testing.T) {
		t.Parallel()

		b := ExponentialBackoff{
			Initial:      100 * time.Millisecond,
			Max:          time.Second,
			Multiplier:   2,
			JitterFactor: 0.5,
		}
		for attempt := 1; attempt <= 10; attempt++ {
			for range 20 {
				d := b.NextInterval(attempt)
				assert.Positive(t, d)
				assert.LessOrEqual(t, d, time.Second)
			}
		}
	})

	t.Run("monotonic without jitter", func(t *testing.T) {
		t.Parallel()

		b := DefaultBackoff()
		prev := time.Duration(0)
		for attempt := 1; attempt <= 5; attempt++ {
			d := b.NextInterval(attempt)
			assert.GreaterOrEqual(t, d, prev)
			assert.LessOrEqual(t, d, 30*time.Second)
			prev = d
		}
	})
}

func TestConstantBackoff(t *testing.T) {
	t.Parallel()

	b := ConstantBackoff(250 * time.Millisecond)
	assert.Zero(t, b.NextInterval(0))
	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 250*time.Millisecond, b.NextInterval(attempt))
	}
}
