package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.log.Info("notification",
		zap.String("type", ev.Type),
		zap.Uint("entity_id", ev.EntityID),
		zap.String("status", ev.Status),
		zap.Uint("customer_id", ev.CustomerID),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return p.log.Sync()
}
