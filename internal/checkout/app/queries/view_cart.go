package queries

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// ViewCartQuery requests the cart view model for a session, optionally
// previewing a coupon against the current subtotal.
type ViewCartQuery struct {
	SessionKey string
	CouponCode string
}

func (q ViewCartQuery) Validate() error {
	if strings.TrimSpace(q.SessionKey) == "" {
		return &domain.ValidationError{Field: "session_key", Reason: "is required"}
	}
	return nil
}

// CartView is the presentation model for the cart page: lines plus the full
// price breakdown the checkout will charge.
type CartView struct {
	Lines       []domain.CartLine `json:"lines"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	ShippingFee decimal.Decimal   `json:"shipping_fee"`
	Discount    decimal.Decimal   `json:"discount"`
	FinalTotal  decimal.Decimal   `json:"final_total"`
	CouponCode  string            `json:"coupon_code,omitempty"`
}

// ViewCartQueryHandler executes ViewCartQuery.
type ViewCartQueryHandler struct {
	carts    ports.CartStore
	coupons  ports.CouponRepository
	shipping domain.ShippingPolicy
	now      func() time.Time
}

func NewViewCartQueryHandler(
	carts ports.CartStore,
	coupons ports.CouponRepository,
	shipping domain.ShippingPolicy,
) *ViewCartQueryHandler {
	return &ViewCartQueryHandler{
		carts:    carts,
		coupons:  coupons,
		shipping: shipping,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle builds the cart view. A coupon preview failure is returned as the
// typed domain error so the caller can render the specific rejection reason;
// the coupon is simply not applied.
func (h *ViewCartQueryHandler) Handle(ctx context.Context, query ViewCartQuery) (*CartView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	cart, err := h.carts.Get(ctx, query.SessionKey)
	if err != nil {
		return nil, err
	}

	subtotal := cart.Subtotal()
	view := &CartView{
		Lines:    cart.Lines,
		Subtotal: subtotal,
		Discount: decimal.Zero,
	}

	if strings.TrimSpace(query.CouponCode) != "" {
		coupon, err := h.coupons.GetByCode(ctx, query.CouponCode)
		if err != nil {
			return nil, err
		}
		result, err := coupon.Evaluate(subtotal, h.now())
		if err != nil {
			return nil, err
		}
		view.Discount = result.Amount
		view.CouponCode = result.CouponCode
	}

	view.ShippingFee = h.shipping.Fee(subtotal)
	view.FinalTotal = subtotal.Add(view.ShippingFee).Sub(view.Discount)

	return view, nil
}
