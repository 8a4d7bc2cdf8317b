package infra

import (
	"math/rand/v2"
	"time"
)

const (
	defaultBaseDelay = 1 * time.Second
	defaultMaxDelay  = 60 * time.Second
	defaultJitter    = 0.2
)

// Backoff computes feed reconnect delays. The delay doubles per attempt up
// to Max, then up to Jitter of it is shaved off at random so that several
// feeds dropped by the same outage do not reconnect in lockstep.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64        // fraction in [0, 1]
	Rand   func() float64 // returns [0, 1); nil uses math/rand/v2
}

// NewBackoff returns the reconnect policy used by the exchange feeds.
func NewBackoff() Backoff {
	return Backoff{Base: defaultBaseDelay, Max: defaultMaxDelay, Jitter: defaultJitter}
}

// Ceiling returns Base * 2^attempt capped at Max, without jitter.
// A negative attempt counts as the first one.
func (b Backoff) Ceiling(attempt int) time.Duration {
	base, limit := b.Base, b.Max
	if base <= 0 {
		base = defaultBaseDelay
	}
	if limit < base {
		limit = base
	}
	if attempt < 0 {
		attempt = 0
	}

	// 2^30 * base is far beyond any sane limit; avoid shifting further.
	if attempt > 30 {
		return limit
	}
	d := base << attempt
	if d <= 0 || d > limit {
		return limit
	}
	return d
}

// Delay returns the jittered wait before reconnect attempt number attempt.
// The result lies in [Ceiling*(1-Jitter), Ceiling].
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Ceiling(attempt)
	j := min(max(b.Jitter, 0), 1)
	if j == 0 {
		return d
	}

	r := b.Rand
	if r == nil {
		r = rand.Float64
	}
	return d - time.Duration(float64(d)*j*r())
}
