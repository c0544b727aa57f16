// Package backoff computes bounded exponential delays with jitter.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Config holds backoff configuration.
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// Delay computes the sleep before the given 1-based attempt, exponentially
// grown from InitialDelay, capped at MaxDelay, with up to JitterFactor of
// random jitter added on top.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := c.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	delay := float64(c.InitialDelay) * math.Pow(factor, float64(attempt-1))
	if max := float64(c.MaxDelay); c.MaxDelay > 0 && delay > max {
		delay = max
	}
	if c.JitterFactor > 0 {
		delay += delay * c.JitterFactor * rand.Float64()
	}
	return time.Duration(delay)
}
