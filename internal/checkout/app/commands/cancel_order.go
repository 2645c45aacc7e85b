package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// CancelOrderCommand requests cancellation of an order.
type CancelOrderCommand struct {
	OrderID string
	Reason  string
}

func (c CancelOrderCommand) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return &domain.ValidationError{Field: "order_id", Reason: "is required"}
	}
	return nil
}

// CancelOrderHandler executes CancelOrderCommand.
type CancelOrderHandler interface {
	Handle(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error)
}

type CancelOrderCommandHandler struct {
	orders ports.OrderStore
	events ports.EventBus
	policy domain.CancellationPolicy
	logger *slog.Logger
}

func NewCancelOrderCommandHandler(
	orders ports.OrderStore,
	events ports.EventBus,
	policy domain.CancellationPolicy,
	logger *slog.Logger,
) *CancelOrderCommandHandler {
	return &CancelOrderCommandHandler{
		orders: orders,
		events: events,
		policy: policy,
		logger: logger,
	}
}

// Handle cancels the order and restores stock in one transaction. The store's
// conditional status flip makes the operation idempotent: a second attempt
// finds the order already cancelled and fails without touching stock again.
// Coupon uses are deliberately not refunded on cancellation. A publish
// failure after the cancellation commits is logged, not returned.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.orders.Cancel(ctx, cmd.OrderID, cmd.Reason, h.policy.AllowedStatuses)
	if err != nil {
		return nil, err
	}

	if err := h.events.PublishOrderCancelled(ctx, order.ID, cmd.Reason); err != nil {
		h.logger.WarnContext(ctx, "order cancelled but event publish failed",
			"error", err,
			"order_id", order.ID,
		)
	}

	return order, nil
}
