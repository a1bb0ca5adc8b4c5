// Package retry re-attempts model queries that fail with transient errors,
// backing off exponentially between attempts.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts, the first one included.
	MaxAttempts int `env:"ATTEMPTS" envDefault:"3"`

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration `env:"INITIAL_DELAY" envDefault:"1s"`

	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"30s"`

	// Multiplier is the exponential backoff factor.
	Multiplier float64 `env:"MULTIPLIER" envDefault:"2"`

	// Jitter spreads delays by up to this fraction in either direction.
	Jitter float64 `env:"JITTER" envDefault:"0.1"`

	// OnEvent, if set, is called for every attempt, failure and backoff.
	OnEvent func(Event) `env:"-"`
}

// DefaultConfig returns the default retry configuration: 3 attempts starting
// at one second, doubling up to 30 seconds, with 10% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a configuration that makes a single attempt.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay calculates the delay after the given attempt (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 ± jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
