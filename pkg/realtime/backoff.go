package realtime

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy calculates the delay before reconnect attempt n (n >= 1).
// Implementations should be safe for concurrent use.
type BackoffStrategy interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff yields min(Initial * Multiplier^attempt, Max), optionally
// spread by JitterFactor. Zero fields fall back to 1s, 30s and 2.
type ExponentialBackoff struct {
	Initial      time.Duration
	Max          time.Duration
	Multiplier   float64
	JitterFactor float64
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.Initial
	if initial <= 0 {
		initial = time.Second
	}
	ceiling := e.Max
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	if interval > float64(ceiling) {
		interval = float64(ceiling)
	}
	return time.Duration(interval)
}

// ConstantBackoff waits the same interval before every attempt.
type ConstantBackoff time.Duration

func (c ConstantBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(c)
}

// DefaultBackoff is 1s doubling per attempt, capped at 30s, without jitter.
func DefaultBackoff() BackoffStrategy {
	return ExponentialBackoff{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
	}
}
