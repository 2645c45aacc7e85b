package adapters

import (
	"context"
	"time"

	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
	"github.com/techshop/checkout/internal/database"
	"github.com/techshop/checkout/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableStore wraps an OrderStore with spans and query-duration metrics.
type ObservableStore struct {
	store   ports.OrderStore
	metrics *database.Metrics
}

func NewObservableStore(store ports.OrderStore, metrics *database.Metrics) *ObservableStore {
	return &ObservableStore{
		store:   store,
		metrics: metrics,
	}
}

func (s *ObservableStore) PlaceOrder(ctx context.Context, order domain.Order, lines []domain.OrderLine, couponID *int64) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.PlaceOrder")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.Int("order.line_count", len(lines)),
		attribute.Bool("order.has_coupon", couponID != nil),
		attribute.String("operation", "place_order"),
	)

	start := time.Now()
	err := s.store.PlaceOrder(ctx, order, lines, couponID)
	duration := time.Since(start).Seconds()

	s.metrics.RecordQuery(ctx, "place_order", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (s *ObservableStore) Cancel(ctx context.Context, orderID, reason string, allowed []domain.OrderStatus) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.Cancel")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("operation", "cancel_order"),
	)

	start := time.Now()
	order, err := s.store.Cancel(ctx, orderID, reason, allowed)
	duration := time.Since(start).Seconds()

	s.metrics.RecordQuery(ctx, "cancel_order", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (s *ObservableStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := s.store.GetByID(ctx, id)
	duration := time.Since(start).Seconds()

	s.metrics.RecordQuery(ctx, "get_order_by_id", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (s *ObservableStore) GetLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.GetLines")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("operation", "get_order_lines"),
	)

	start := time.Now()
	lines, err := s.store.GetLines(ctx, orderID)
	duration := time.Since(start).Seconds()

	s.metrics.RecordQuery(ctx, "get_order_lines", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return lines, nil
}

func (s *ObservableStore) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.List")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list"),
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", filter.Status.String()))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	orders, err := s.store.List(ctx, filter)
	duration := time.Since(start).Seconds()

	s.metrics.RecordQuery(ctx, "list_orders", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (s *ObservableStore) AdvanceStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.AdvanceStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("order.new_status", next.String()),
		attribute.String("operation", "advance_status"),
	)

	start := time.Now()
	order, err := s.store.AdvanceStatus(ctx, id, next)
	duration := time.Since(start).Seconds()

	s.metrics.RecordQuery(ctx, "advance_order_status", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}
