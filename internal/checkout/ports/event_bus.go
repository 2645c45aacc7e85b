package ports

import "context"

// EventBus defines the contract for publishing order lifecycle events.
// Publishing happens after commit; a publish failure never fails the order.
type EventBus interface {
	PublishOrderPlaced(ctx context.Context, orderID, orderCode string) error
	PublishOrderCancelled(ctx context.Context, orderID, reason string) error
}
