package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayGrowsExponentially(t *testing.T) {
	cfg := Config{
		MaxAttempts:   5,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
	}

	assert.Equal(t, time.Second, cfg.Delay(1))
	assert.Equal(t, 2*time.Second, cfg.Delay(2))
	assert.Equal(t, 4*time.Second, cfg.Delay(3))
	assert.Equal(t, 8*time.Second, cfg.Delay(4))
}

func TestDelayCappedAtMax(t *testing.T) {
	cfg := Config{
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}

	assert.Equal(t, 5*time.Second, cfg.Delay(10))
}

func TestDelayJitterBounds(t *testing.T) {
	cfg := Config{
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
	}

	for i := 0; i < 100; i++ {
		d := cfg.Delay(2)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, time.Duration(float64(2*time.Second)*1.2))
	}
}

func TestDelayDefensiveInputs(t *testing.T) {
	cfg := Config{InitialDelay: time.Second}

	// Attempt below 1 and a zero factor still produce a sane delay.
	assert.Equal(t, time.Second, cfg.Delay(0))
	assert.Equal(t, time.Second, cfg.Delay(3))
}
