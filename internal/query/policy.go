package query

import (
	"math"
	"time"
)

// Forever is a StaleTime that never expires.
const Forever time.Duration = math.MaxInt64

// Policy controls freshness, retention and retries for one operation.
type Policy struct {
	// StaleTime is how long a success stays fresh after it completed.
	StaleTime time.Duration
	// ErrorTime is how long a failure is served from cache. Zero means StaleTime.
	ErrorTime time.Duration
	// GCTime is the inactivity window after which the entry is evicted.
	GCTime time.Duration
	// Retries is the number of extra attempts after a retryable failure.
	Retries int
}

func (p Policy) errorTime() time.Duration {
	if p.ErrorTime > 0 {
		return p.ErrorTime
	}
	return p.StaleTime
}

// Backoff is capped exponential: min(Base*2^attempt, Max).
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Max: 30 * time.Second}
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if b.Base <= 0 {
		return 0
	}
	delay := b.Base
	for i := 0; i < attempt; i++ {
		if b.Max > 0 && delay >= b.Max {
			break
		}
		if delay > math.MaxInt64/2 {
			delay = math.MaxInt64
			break
		}
		delay *= 2
	}
	if b.Max > 0 && delay > b.Max {
		return b.Max
	}
	return delay
}
