package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ConsoleNotifier logs codes instead of sending them. Development only.
type ConsoleNotifier struct {
	log *zap.Logger
}

func NewConsole(log *zap.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{log: log}
}

func (c *ConsoleNotifier) SendCode(_ context.Context, identifier, code string, ttl time.Duration) error {
	c.log.Info("[notify] verification code",
		zap.String("to", identifier),
		zap.String("code", code),
		zap.Duration("ttl", ttl),
	)
	return nil
}
