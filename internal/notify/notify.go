package notify

import (
	"context"
	"sync"
	"time"
)

// Level classifies a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient user-facing message
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Source  string    `json:"source,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Notifier is the side channel used to report outcomes to the user
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// Sink receives fully built notifications; transports implement it
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// sinkNotifier adapts a Sink to the Notifier interface
type sinkNotifier struct {
	sink   Sink
	source string
	onErr  func(error)
}

// FromSink wraps a sink; send failures go to onErr when it is set
func FromSink(sink Sink, source string, onErr func(error)) Notifier {
	return &sinkNotifier{sink: sink, source: source, onErr: onErr}
}

func (n *sinkNotifier) Success(ctx context.Context, message string) {
	n.send(ctx, LevelSuccess, message)
}

func (n *sinkNotifier) Error(ctx context.Context, message string) {
	n.send(ctx, LevelError, message)
}

func (n *sinkNotifier) send(ctx context.Context, level Level, message string) {
	err := n.sink.Send(ctx, Notification{
		Level:   level,
		Message: message,
		Source:  n.source,
		SentAt:  time.Now().UTC(),
	})
	if err != nil && n.onErr != nil {
		n.onErr(err)
	}
}

// Nop discards every notification
type Nop struct{}

// Success does nothing
func (Nop) Success(context.Context, string) {}

// Error does nothing
func (Nop) Error(context.Context, string) {}

// Multi fans notifications out to several notifiers
type Multi []Notifier

// Success notifies every member
func (m Multi) Success(ctx context.Context, message string) {
	for _, n := range m {
		n.Success(ctx, message)
	}
}

// Error notifies every member
func (m Multi) Error(ctx context.Context, message string) {
	for _, n := range m {
		n.Error(ctx, message)
	}
}

// Recorder keeps notifications in memory
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Success records a success notification
func (r *Recorder) Success(_ context.Context, message string) {
	r.record(LevelSuccess, message)
}

// Error records an error notification
func (r *Recorder) Error(_ context.Context, message string) {
	r.record(LevelError, message)
}

func (r *Recorder) record(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message, SentAt: time.Now().UTC()})
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Messages returns the recorded messages at the given level
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.items {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset forgets everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
