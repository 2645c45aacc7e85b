package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/techshop/checkout/internal/checkout/app/commands"
	"github.com/techshop/checkout/internal/checkout/app/queries"
	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/metrics"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// Service bundles the checkout use cases exposed to the API layer: cart
// mutations, coupon preview, order placement, cancellation, and queries.
type Service struct {
	orders   ports.OrderStore
	carts    ports.CartStore
	catalog  ports.ProductCatalog
	coupons  ports.CouponRepository
	idem     ports.IdempotencyStore
	shipping domain.ShippingPolicy

	placeOrderHandler  commands.PlaceOrderHandler
	cancelOrderHandler commands.CancelOrderHandler
	getOrderHandler    *queries.GetOrderQueryHandler
	viewCartHandler    *queries.ViewCartQueryHandler
}

// NewService wires required dependencies.
func NewService(
	orders ports.OrderStore,
	carts ports.CartStore,
	catalog ports.ProductCatalog,
	coupons ports.CouponRepository,
	identity ports.IdentityProvider,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	shipping domain.ShippingPolicy,
	cancellation domain.CancellationPolicy,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	placeHandler := commands.NewPlaceOrderCommandHandler(orders, carts, coupons, identity, events, shipping, logger)
	cancelHandler := commands.NewCancelOrderCommandHandler(orders, events, cancellation, logger)

	return &Service{
		orders:             orders,
		carts:              carts,
		catalog:            catalog,
		coupons:            coupons,
		idem:               idem,
		shipping:           shipping,
		placeOrderHandler:  commands.NewObservablePlaceOrderHandler(placeHandler, logger, metrics),
		cancelOrderHandler: commands.NewObservableCancelOrderHandler(cancelHandler, logger, metrics),
		getOrderHandler:    queries.NewGetOrderQueryHandler(orders),
		viewCartHandler:    queries.NewViewCartQueryHandler(carts, coupons, shipping),
	}
}

// AddToCart merges the requested quantity into the session cart after
// validating it against freshly read stock. The cumulative line quantity,
// not just the increment, must fit within stock.
func (s *Service) AddToCart(ctx context.Context, sessionKey string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	requested := quantity
	if line := cart.Line(productID); line != nil {
		requested += line.Quantity
	}
	if requested > product.StockQuantity {
		return nil, &domain.InsufficientStockError{
			ProductID: productID,
			Available: product.StockQuantity,
			Requested: requested,
		}
	}

	cart.AddLine(productID, product.Name, product.EffectivePrice(), quantity)

	if err := s.carts.Save(ctx, sessionKey, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// UpdateCartLine replaces a line's quantity. Zero or negative removes the
// line; a positive quantity is validated against live stock first.
func (s *Service) UpdateCartLine(ctx context.Context, sessionKey string, productID int64, quantity int) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if quantity > 0 {
		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if quantity > product.StockQuantity {
			return nil, &domain.InsufficientStockError{
				ProductID: productID,
				Available: product.StockQuantity,
				Requested: quantity,
			}
		}
	}

	cart.SetLineQuantity(productID, quantity)

	if err := s.carts.Save(ctx, sessionKey, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// RemoveFromCart drops a line. Removing an absent line is a no-op.
func (s *Service) RemoveFromCart(ctx context.Context, sessionKey string, productID int64) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	cart.RemoveLine(productID)

	if err := s.carts.Save(ctx, sessionKey, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// ClearCart empties the session cart.
func (s *Service) ClearCart(ctx context.Context, sessionKey string) error {
	return s.carts.Clear(ctx, sessionKey)
}

// ViewCart returns the cart view model, optionally previewing a coupon.
func (s *Service) ViewCart(ctx context.Context, sessionKey, couponCode string) (*queries.CartView, error) {
	return s.viewCartHandler.Handle(ctx, queries.ViewCartQuery{
		SessionKey: sessionKey,
		CouponCode: couponCode,
	})
}

// ApplyCoupon evaluates a coupon against the current cart and returns the
// resulting price breakdown. Evaluation never consumes a coupon use; only a
// committed checkout does.
func (s *Service) ApplyCoupon(ctx context.Context, sessionKey, couponCode string) (*queries.CartView, error) {
	if strings.TrimSpace(couponCode) == "" {
		return nil, &domain.ValidationError{Field: "coupon_code", Reason: "is required"}
	}
	return s.viewCartHandler.Handle(ctx, queries.ViewCartQuery{
		SessionKey: sessionKey,
		CouponCode: couponCode,
	})
}

// PlaceOrderInput captures the checkout payload.
type PlaceOrderInput struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	Note            string `json:"note"`
	CouponCode      string `json:"coupon_code"`
}

// PlaceOrder converts the session cart into a persisted order.
func (s *Service) PlaceOrder(ctx context.Context, sessionKey string, input PlaceOrderInput) (*domain.Order, error) {
	return s.placeOrderHandler.Handle(ctx, commands.PlaceOrderCommand{
		SessionKey:      sessionKey,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerEmail:   input.CustomerEmail,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Note:            input.Note,
		CouponCode:      input.CouponCode,
	})
}

// CancelOrder cancels an order and restores its stock.
func (s *Service) CancelOrder(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	return s.cancelOrderHandler.Handle(ctx, commands.CancelOrderCommand{
		OrderID: orderID,
		Reason:  reason,
	})
}

// GetOrder retrieves an order and its lines.
func (s *Service) GetOrder(ctx context.Context, id string) (*queries.OrderWithLines, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return s.orders.List(ctx, filter)
}

// AdvanceOrderStatus moves an order forward along the status machine,
// stamping the shipped/delivered timestamps.
func (s *Service) AdvanceOrderStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	switch next {
	case domain.StatusConfirmed, domain.StatusShipped, domain.StatusDelivered:
	default:
		return nil, ports.ErrInvalidTransition
	}
	return s.orders.AdvanceStatus(ctx, id, next)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idem.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idem.Get(ctx, key)
}
