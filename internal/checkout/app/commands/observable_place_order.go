package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/metrics"
	"github.com/techshop/checkout/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservablePlaceOrderHandler struct {
	handler PlaceOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservablePlaceOrderHandler(handler PlaceOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservablePlaceOrderHandler {
	return &ObservablePlaceOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservablePlaceOrderHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlaceOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordCheckoutDuration(ctx, duration)
		o.metrics.RecordOrderPlaced(ctx, success)
	}()

	o.logger.InfoContext(ctx, "placing order",
		"session_key", cmd.SessionKey,
		"coupon_code", cmd.CouponCode,
	)

	order, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.recordCouponRejection(ctx, err)
		o.logger.ErrorContext(ctx, "failed to place order",
			"error", err,
			"session_key", cmd.SessionKey,
		)
		return order, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.code", order.Code),
		attribute.String("order.final_amount", order.FinalAmount.String()),
		attribute.String("order.status", order.Status.String()),
	)

	o.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"order_code", order.Code,
		"final_amount", order.FinalAmount.String(),
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}

func (o *ObservablePlaceOrderHandler) recordCouponRejection(ctx context.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrCouponNotFound):
		o.metrics.RecordCouponRejection(ctx, "not_found")
	case errors.Is(err, domain.ErrCouponExpired):
		o.metrics.RecordCouponRejection(ctx, "expired")
	case errors.Is(err, domain.ErrCouponExhausted):
		o.metrics.RecordCouponRejection(ctx, "exhausted")
	default:
		var minErr *domain.BelowMinimumOrderError
		if errors.As(err, &minErr) {
			o.metrics.RecordCouponRejection(ctx, "below_minimum")
		}
	}
}
