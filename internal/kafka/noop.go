package kafka

import (
	"context"
	"log/slog"
)

// NoopEventBus logs events without sending them to Kafka. Useful for local
// dev before brokers are available.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderPlaced(_ context.Context, orderID, orderCode string) error {
	slog.Debug("event::order_placed", "order_id", orderID, "order_code", orderCode)
	return nil
}

func (n *NoopEventBus) PublishOrderCancelled(_ context.Context, orderID, reason string) error {
	slog.Debug("event::order_cancelled", "order_id", orderID, "reason", reason)
	return nil
}
