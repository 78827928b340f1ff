package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// NATSSubject is the subject notifications are published on
	NATSSubject = "backoffice.notifications"
)

// NATSSink publishes notifications to a NATS subject
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// DialNATS connects to url and returns a sink on NATSSubject
func DialNATS(url string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("backoffice"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewNATSSink(nc), nil
}

// NewNATSSink wraps an existing connection
func NewNATSSink(nc *nats.Conn) *NATSSink {
	return &NATSSink{nc: nc, subject: NATSSubject}
}

// Send publishes one notification
func (s *NATSSink) Send(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := s.nc.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	return nil
}

// Subscribe delivers notifications to handler until ctx is done
func (s *NATSSink) Subscribe(ctx context.Context, handler func(Notification)) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var n Notification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			return
		}
		handler(n)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}

// Close drains and closes the connection
func (s *NATSSink) Close() error {
	return s.nc.Drain()
}
