package queries

import (
	"context"
	"strings"

	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// GetOrderQuery represents a request to retrieve an order and its lines.
type GetOrderQuery struct {
	OrderID string
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" {
		return &domain.ValidationError{Field: "order_id", Reason: "is required"}
	}
	return nil
}

// OrderWithLines is the confirmation payload exposed to the presentation
// layer: the order header plus its immutable line snapshots.
type OrderWithLines struct {
	Order domain.Order       `json:"order"`
	Lines []domain.OrderLine `json:"lines"`
}

// GetOrderQueryHandler executes GetOrderQuery.
type GetOrderQueryHandler struct {
	orders ports.OrderStore
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(orders ports.OrderStore) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{orders: orders}
}

// Handle retrieves the order and its lines.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*OrderWithLines, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.orders.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	lines, err := h.orders.GetLines(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	return &OrderWithLines{Order: *order, Lines: lines}, nil
}
