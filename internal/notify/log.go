package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to a logrus logger
type LogNotifier struct {
	logger logrus.FieldLogger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Success logs at info level
func (n *LogNotifier) Success(_ context.Context, message string) {
	n.logger.WithField("notification", LevelSuccess).Info(message)
}

// Error logs at error level
func (n *LogNotifier) Error(_ context.Context, message string) {
	n.logger.WithField("notification", LevelError).Error(message)
}
