package commands

import (
	"context"
	"log/slog"

	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/metrics"
	"github.com/techshop/checkout/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCancelOrderHandler struct {
	handler CancelOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCancelOrderHandler(handler CancelOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCancelOrderHandler {
	return &ObservableCancelOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CancelOrderCommand.Handle")
	defer span.End()

	o.logger.InfoContext(ctx, "cancelling order",
		"order_id", cmd.OrderID,
		"reason", cmd.Reason,
	)

	order, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.metrics.RecordOrderCancelled(ctx, false)
		o.logger.ErrorContext(ctx, "failed to cancel order",
			"error", err,
			"order_id", cmd.OrderID,
		)
		return order, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.status", order.Status.String()),
	)

	o.logger.InfoContext(ctx, "order cancelled",
		"order_id", order.ID,
		"order_code", order.Code,
	)

	o.metrics.RecordOrderCancelled(ctx, true)
	telemetry.SetSpanSuccess(span)

	return order, nil
}
