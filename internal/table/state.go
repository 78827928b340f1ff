package table

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrInvalidTransition is returned when a load would move the table to a state it cannot reach
var ErrInvalidTransition = errors.New("invalid table state transition")

// State is the lifecycle position of a table
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// StateMachine validates table state transitions
type StateMachine struct {
	validTransitions map[State][]State
}

// NewStateMachine creates the table state machine.
// Loading may follow Loading when a newer request supersedes an older one.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		validTransitions: map[State][]State{
			StateIdle:    {StateLoading},
			StateLoading: {StateLoading, StateReady, StateError},
			StateReady:   {StateLoading},
			StateError:   {StateLoading},
		},
	}
}

// CanTransition reports whether from → to is allowed
func (sm *StateMachine) CanTransition(from, to State) bool {
	for _, s := range sm.validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition for a disallowed move
func (sm *StateMachine) ValidateTransition(from, to State) error {
	if !sm.CanTransition(from, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// NextStates returns the states reachable from current
func (sm *StateMachine) NextStates(current State) []State {
	return sm.validTransitions[current]
}

// TransitionEvent describes one state change of a table
type TransitionEvent struct {
	Table      string
	Generation uint64
	From       State
	To         State
	Err        error
	At         time.Time
}

// EventPublisher receives table state changes
type EventPublisher interface {
	Publish(event TransitionEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(TransitionEvent) error { return nil }

// LogPublisher writes events to a logger at debug level, failures at warn
type LogPublisher struct {
	Logger logrus.FieldLogger
}

// Publish logs the event
func (p LogPublisher) Publish(event TransitionEvent) error {
	entry := p.Logger.WithFields(logrus.Fields{
		"table":      event.Table,
		"generation": event.Generation,
		"from":       event.From,
		"to":         event.To,
	})
	if event.Err != nil {
		entry.WithError(event.Err).Warn("Table load failed")
		return nil
	}
	entry.Debug("Table state changed")
	return nil
}
