package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// PlaceOrderCommand carries everything needed to turn a session cart into a
// persisted order. Amounts are never taken from the client; the handler
// recomputes the subtotal from the stored cart.
type PlaceOrderCommand struct {
	SessionKey      string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	ShippingAddress string
	PaymentMethod   string
	Note            string
	CouponCode      string
}

// Validate checks the required checkout fields. The first missing field wins
// so the caller gets one actionable message at a time.
func (c PlaceOrderCommand) Validate() error {
	if strings.TrimSpace(c.SessionKey) == "" {
		return &domain.ValidationError{Field: "session_key", Reason: "is required"}
	}
	if strings.TrimSpace(c.CustomerName) == "" {
		return &domain.ValidationError{Field: "customer_name", Reason: "is required"}
	}
	if strings.TrimSpace(c.CustomerPhone) == "" {
		return &domain.ValidationError{Field: "customer_phone", Reason: "is required"}
	}
	if strings.TrimSpace(c.ShippingAddress) == "" {
		return &domain.ValidationError{Field: "shipping_address", Reason: "is required"}
	}
	if strings.TrimSpace(c.PaymentMethod) == "" {
		return &domain.ValidationError{Field: "payment_method", Reason: "is required"}
	}
	if c.CustomerEmail != "" && !strings.Contains(c.CustomerEmail, "@") {
		return &domain.ValidationError{Field: "customer_email", Reason: "must be valid"}
	}
	return nil
}

// PlaceOrderHandler executes PlaceOrderCommand.
type PlaceOrderHandler interface {
	Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
}

type PlaceOrderCommandHandler struct {
	orders   ports.OrderStore
	carts    ports.CartStore
	coupons  ports.CouponRepository
	identity ports.IdentityProvider
	events   ports.EventBus
	shipping domain.ShippingPolicy
	logger   *slog.Logger
	now      func() time.Time
}

func NewPlaceOrderCommandHandler(
	orders ports.OrderStore,
	carts ports.CartStore,
	coupons ports.CouponRepository,
	identity ports.IdentityProvider,
	events ports.EventBus,
	shipping domain.ShippingPolicy,
	logger *slog.Logger,
) *PlaceOrderCommandHandler {
	return &PlaceOrderCommandHandler{
		orders:   orders,
		carts:    carts,
		coupons:  coupons,
		identity: identity,
		events:   events,
		shipping: shipping,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle assembles and commits the order: recompute the subtotal from the
// stored cart, evaluate the coupon, price shipping, then hand everything to
// the store for the atomic commit (order + lines + stock + coupon use). The
// cart is cleared only after the commit succeeds, so a failed checkout leaves
// it intact for retry. Once the commit lands the order is placed: a failed
// cart clear or event publish is logged and does not fail the checkout.
func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cart, err := h.carts.Get(ctx, cmd.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	subtotal := cart.Subtotal()
	now := h.now()

	discount := decimal.Zero
	var couponID *int64
	var couponCode *string
	if strings.TrimSpace(cmd.CouponCode) != "" {
		coupon, err := h.coupons.GetByCode(ctx, cmd.CouponCode)
		if err != nil {
			return nil, err
		}
		result, err := coupon.Evaluate(subtotal, now)
		if err != nil {
			return nil, err
		}
		discount = result.Amount
		couponID = &result.CouponID
		couponCode = &result.CouponCode
	}

	shippingFee := h.shipping.Fee(subtotal)
	finalAmount := subtotal.Add(shippingFee).Sub(discount)

	order := domain.Order{
		ID:              uuid.NewString(),
		Code:            generateOrderCode(now),
		UserID:          h.identity.CurrentUserID(ctx),
		Status:          domain.StatusPending,
		TotalAmount:     subtotal,
		DiscountAmount:  discount,
		ShippingFee:     shippingFee,
		FinalAmount:     finalAmount,
		CouponCode:      couponCode,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		CustomerName:    cmd.CustomerName,
		CustomerPhone:   cmd.CustomerPhone,
		CustomerEmail:   cmd.CustomerEmail,
		ShippingAddress: cmd.ShippingAddress,
		Note:            cmd.Note,
		OrderedAt:       now,
	}

	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, domain.OrderLine{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice(),
		})
	}

	if err := h.orders.PlaceOrder(ctx, order, lines, couponID); err != nil {
		return nil, err
	}

	// The commit is the point of no return. Stock and coupon use are already
	// consumed, so a stale cart or a missed event must not turn a placed
	// order into a checkout failure.
	if err := h.carts.Clear(ctx, cmd.SessionKey); err != nil {
		h.logger.WarnContext(ctx, "order placed but cart clear failed",
			"error", err,
			"order_id", order.ID,
			"session_key", cmd.SessionKey,
		)
	}

	if err := h.events.PublishOrderPlaced(ctx, order.ID, order.Code); err != nil {
		h.logger.WarnContext(ctx, "order placed but event publish failed",
			"error", err,
			"order_id", order.ID,
			"order_code", order.Code,
		)
	}

	return &order, nil
}

// IsRecoverable reports whether a checkout failure is a business-rule
// rejection the caller can act on, as opposed to a persistence failure.
func IsRecoverable(err error) bool {
	var stockErr *domain.InsufficientStockError
	var minErr *domain.BelowMinimumOrderError
	var valErr *domain.ValidationError
	return errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrCouponNotFound) ||
		errors.Is(err, domain.ErrCouponExpired) ||
		errors.Is(err, domain.ErrCouponExhausted) ||
		errors.As(err, &stockErr) ||
		errors.As(err, &minErr) ||
		errors.As(err, &valErr)
}

// generateOrderCode builds a human-readable order code: a timestamp token
// plus a short random disambiguator for same-second orders.
func generateOrderCode(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return "ORD" + now.Format("20060102150405") + "-" + suffix
}
