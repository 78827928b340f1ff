package table

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestStateMachine_CanTransition(t *testing.T) {
	sm := NewStateMachine()

	tests := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{"Idle to Loading", StateIdle, StateLoading, true},
		{"Loading to Ready", StateLoading, StateReady, true},
		{"Loading to Error", StateLoading, StateError, true},
		{"Loading superseded", StateLoading, StateLoading, true},
		{"Ready to Loading", StateReady, StateLoading, true},
		{"Error to Loading", StateError, StateLoading, true},

		{"Idle to Ready", StateIdle, StateReady, false},
		{"Idle to Error", StateIdle, StateError, false},
		{"Ready to Error", StateReady, StateError, false},
		{"Error to Ready", StateError, StateReady, false},
		{"Ready to Idle", StateReady, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sm.CanTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestStateMachine_ValidateTransition(t *testing.T) {
	sm := NewStateMachine()

	if err := sm.ValidateTransition(StateReady, StateLoading); err != nil {
		t.Errorf("ValidateTransition() error = %v, want nil", err)
	}
	if err := sm.ValidateTransition(StateIdle, StateReady); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ValidateTransition() error = %v, want ErrInvalidTransition", err)
	}
	if got := sm.NextStates(StateLoading); len(got) != 3 {
		t.Errorf("NextStates(loading) = %v, want 3 states", got)
	}
}

func TestLogPublisher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	pub := LogPublisher{Logger: logger}

	_ = pub.Publish(TransitionEvent{Table: "users", From: StateIdle, To: StateLoading})
	_ = pub.Publish(TransitionEvent{Table: "users", From: StateLoading, To: StateError, Err: errors.New("down")})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Level != logrus.DebugLevel || entries[1].Level != logrus.WarnLevel {
		t.Errorf("levels = %v, %v; want debug, warn", entries[0].Level, entries[1].Level)
	}
	if entries[1].Data["table"] != "users" {
		t.Errorf("table field = %v, want users", entries[1].Data["table"])
	}
}
