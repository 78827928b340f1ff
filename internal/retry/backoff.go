package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the wait before the next attempt
type Backoff interface {
	// Delay returns the wait after the given failed attempt (1-based)
	Delay(attempt int) time.Duration
}

// Exponential doubles the delay after each failed attempt
type Exponential struct {
	Base   time.Duration
	Max    time.Duration
	Jitter bool
}

// DefaultExponential returns the backoff used for idempotent API reads
func DefaultExponential() Exponential {
	return Exponential{Base: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: true}
}

// Delay returns Base * 2^(attempt-1), capped at Max, with ±25% jitter when enabled
func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(e.Base) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && delay > float64(e.Max) {
		delay = float64(e.Max)
	}
	if e.Jitter {
		delay *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(delay)
}

// Constant waits the same duration between attempts
type Constant time.Duration

// Delay returns the constant duration
func (c Constant) Delay(int) time.Duration {
	return time.Duration(c)
}
