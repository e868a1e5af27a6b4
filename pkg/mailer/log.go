package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes messages to the logger instead of delivering them. Used outside production.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the envelope and plain-text body.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("email",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
