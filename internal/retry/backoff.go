package retry

import (
	"math"
	"math/rand"
	"time"
)

// Strategy decides how long to wait before each retry and how many retries
// are allowed.
type Strategy interface {
	// NextDelay returns the wait before retry number attempt (zero-based).
	NextDelay(attempt int) time.Duration

	// MaxAttempts is the retry budget: 0 disables retries, negative is unbounded.
	MaxAttempts() int
}

// Backoff is an exponential Strategy with optional jitter.
type Backoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	maxAttempts  int
	jitter       float64
	random       func() float64
}

// BackoffOption configures a Backoff.
type BackoffOption func(*Backoff)

// WithInitialDelay sets the wait before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.initialDelay = d }
}

// WithMaxDelay caps the wait between retries.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.maxDelay = d }
}

// WithMultiplier sets the growth factor applied per retry.
func WithMultiplier(m float64) BackoffOption {
	return func(b *Backoff) { b.multiplier = m }
}

// WithJitter sets the relative jitter in [0, 1]. 0.1 spreads delays by +/-10%.
func WithJitter(j float64) BackoffOption {
	return func(b *Backoff) { b.jitter = j }
}

// WithRandom replaces the jitter source, which must return values in [0, 1).
func WithRandom(f func() float64) BackoffOption {
	return func(b *Backoff) { b.random = f }
}

// NewBackoff returns a Backoff allowing maxAttempts retries, starting at 200ms
// and capped at 10s unless overridden.
func NewBackoff(maxAttempts int, opts ...BackoffOption) *Backoff {
	b := &Backoff{
		initialDelay: 200 * time.Millisecond,
		maxDelay:     10 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		random:       rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns initialDelay * multiplier^attempt, capped and jittered.
func (b *Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if delay > float64(b.maxDelay) || math.IsInf(delay, 1) {
		delay = float64(b.maxDelay)
	}

	if b.jitter > 0 && b.random != nil {
		offset := b.random()*2 - 1
		delay *= 1 + b.jitter*offset
	}

	return time.Duration(delay).Round(time.Millisecond)
}

func (b *Backoff) MaxAttempts() int {
	return b.maxAttempts
}

func (b *Backoff) InitialDelay() time.Duration {
	return b.initialDelay
}

func (b *Backoff) MaxDelay() time.Duration {
	return b.maxDelay
}
