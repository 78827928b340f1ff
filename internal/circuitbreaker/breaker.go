// Package circuitbreaker stops calling an API that keeps failing and probes it again after a cooldown.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen is returned while the breaker rejects calls
	ErrOpen = errors.New("circuit breaker is open")

	// ErrProbeInFlight is returned in half-open state when the probe quota is used up
	ErrProbeInFlight = errors.New("circuit breaker probe in flight")
)

// State is the breaker position
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config tunes a Breaker
type Config struct {
	// FailureThreshold consecutive failures open the breaker
	FailureThreshold int

	// Cooldown is how long the breaker stays open before allowing probes
	Cooldown time.Duration

	// HalfOpenProbes is the number of calls let through while half-open
	HalfOpenProbes int

	// IsFailure classifies results. Nil counts every non-nil error.
	IsFailure func(err error) bool

	OnStateChange func(from, to State)

	// Now is the clock; nil uses time.Now
	Now func() time.Time
}

// DefaultConfig returns the settings used by the request client
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenProbes:   1,
	}
}

// Counts is a snapshot of the breaker counters
type Counts struct {
	State               State
	ConsecutiveFailures int
	Rejected            int64
	OpenedAt            time.Time
}

// Breaker guards calls to a single upstream
type Breaker struct {
	cfg Config

	mu       sync.Mutex
	state    State
	failures int
	probes   int
	rejected int64
	openedAt time.Time
}

// New creates a closed breaker
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	if cfg.HalfOpenProbes < 1 {
		cfg.HalfOpenProbes = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{cfg: cfg}
}

// Do runs fn when the breaker allows it and records the outcome
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.Record(err)
	return err
}

// Allow reports whether a call may proceed; a nil result must be followed by Record
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.cfg.Now().Sub(b.openedAt) < b.cfg.Cooldown {
			b.rejected++
			return ErrOpen
		}
		b.transition(HalfOpen)
		b.probes = 1
		return nil
	case HalfOpen:
		if b.probes >= b.cfg.HalfOpenProbes {
			b.rejected++
			return ErrProbeInFlight
		}
		b.probes++
		return nil
	default:
		return nil
	}
}

// Record feeds the outcome of an allowed call back into the breaker
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := b.cfg.IsFailure(err)

	switch b.state {
	case Closed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
		}
	case HalfOpen:
		if failed {
			b.trip()
			return
		}
		b.failures = 0
		b.probes = 0
		b.transition(Closed)
	}
}

// State returns the current position
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts returns a snapshot of the counters
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Counts{
		State:               b.state,
		ConsecutiveFailures: b.failures,
		Rejected:            b.rejected,
		OpenedAt:            b.openedAt,
	}
}

// Reset closes the breaker and clears the counters
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.probes = 0
	b.transition(Closed)
}

func (b *Breaker) trip() {
	b.openedAt = b.cfg.Now()
	b.probes = 0
	b.transition(Open)
}

// transition must be called with mu held
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
