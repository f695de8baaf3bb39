package engine

import (
	"math/rand/v2"
	"time"
)

// Retry backoff defaults. A BIO that reports would-block is usually backed by
// a socket that drains within a few milliseconds.
const (
	// DefaultRetryInitial is the first wait after a retry sentinel.
	DefaultRetryInitial = 1 * time.Millisecond

	// DefaultRetryMax caps a single wait.
	DefaultRetryMax = 50 * time.Millisecond

	// DefaultRetryMultiplier is the growth factor between waits.
	DefaultRetryMultiplier = 2.0

	// DefaultRetryJitter is the maximum jitter as a fraction of the wait.
	DefaultRetryJitter = 0.25

	// DefaultRetryBudget is the number of waits allowed within one call.
	DefaultRetryBudget = 100
)

// BackoffConfig customizes retry waits. Zero fields take the defaults.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

func (c BackoffConfig) withDefaults() BackoffConfig {
	if c.Initial <= 0 {
		c.Initial = DefaultRetryInitial
	}
	if c.Max <= 0 {
		c.Max = DefaultRetryMax
	}
	if c.Max < c.Initial {
		c.Max = c.Initial
	}
	if c.Multiplier <= 1 {
		c.Multiplier = DefaultRetryMultiplier
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

// Backoff yields exponentially growing waits with jitter.
// It is not safe for concurrent use; each blocking call owns one.
type Backoff struct {
	cfg      BackoffConfig
	current  time.Duration
	attempts int
}

// NewBackoff creates a backoff with the given configuration.
func NewBackoff(cfg BackoffConfig) *Backoff {
	cfg = cfg.withDefaults()
	return &Backoff{cfg: cfg, current: cfg.Initial}
}

// Next returns the next wait and advances the backoff.
func (b *Backoff) Next() time.Duration {
	delay := b.current
	if b.cfg.Jitter > 0 {
		delay += time.Duration(float64(delay) * b.cfg.Jitter * rand.Float64())
	}

	b.attempts++
	next := time.Duration(float64(b.current) * b.cfg.Multiplier)
	if next > b.cfg.Max {
		next = b.cfg.Max
	}
	b.current = next
	return delay
}

// Reset returns to the initial wait. Call it after progress was made.
func (b *Backoff) Reset() {
	b.current = b.cfg.Initial
	b.attempts = 0
}

// Attempts returns the number of waits handed out since the last reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}
