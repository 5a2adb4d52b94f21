package fleet

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier delivers notifications to the structured log. Stands in
// for the depot's messaging integration; the core only needs the three
// channels to exist.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier writing to the given logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RequestApproval(_ context.Context, subject, body string) error {
	n.logger.Info("approval requested",
		zap.String("subject", subject), zap.String("body", body))
	return nil
}

func (n *LogNotifier) NotifyOperational(_ context.Context, subject, body string) error {
	n.logger.Info("operational notification",
		zap.String("subject", subject), zap.String("body", body))
	return nil
}

func (n *LogNotifier) EmergencyAlert(_ context.Context, subject, body string) error {
	n.logger.Error("EMERGENCY ALERT",
		zap.String("subject", subject), zap.String("body", body))
	return nil
}
