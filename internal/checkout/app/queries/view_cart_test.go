package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/techshop/checkout/internal/checkout/app/queries"
	"github.com/techshop/checkout/internal/checkout/domain"
)

type mockCartStore struct {
	getFn func(ctx context.Context, sessionKey string) (*domain.Cart, error)
}

func (m *mockCartStore) Get(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	if m.getFn != nil {
		return m.getFn(ctx, sessionKey)
	}
	return &domain.Cart{}, nil
}

func (m *mockCartStore) Save(ctx context.Context, sessionKey string, cart *domain.Cart) error {
	return nil
}

func (m *mockCartStore) Clear(ctx context.Context, sessionKey string) error {
	return nil
}

type mockCouponRepository struct {
	getByCodeFn func(ctx context.Context, code string) (*domain.Coupon, error)
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, domain.ErrCouponNotFound
}

func TestViewCart(t *testing.T) {
	t.Run("returns empty view for fresh session", func(t *testing.T) {
		handler := queries.NewViewCartQueryHandler(&mockCartStore{}, &mockCouponRepository{}, domain.DefaultShippingPolicy())

		view, err := handler.Handle(context.Background(), queries.ViewCartQuery{SessionKey: "session-1"})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(view.Lines) != 0 {
			t.Errorf("expected no lines, got %d", len(view.Lines))
		}
		if !view.Subtotal.Equal(decimal.Zero) {
			t.Errorf("expected zero subtotal, got %s", view.Subtotal)
		}
	})

	t.Run("computes totals without coupon", func(t *testing.T) {
		carts := &mockCartStore{
			getFn: func(ctx context.Context, sessionKey string) (*domain.Cart, error) {
				cart := &domain.Cart{}
				cart.AddLine(1, "Keyboard", decimal.NewFromInt(150000), 2)
				return cart, nil
			},
		}

		handler := queries.NewViewCartQueryHandler(carts, &mockCouponRepository{}, domain.DefaultShippingPolicy())

		view, err := handler.Handle(context.Background(), queries.ViewCartQuery{SessionKey: "session-1"})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !view.Subtotal.Equal(decimal.NewFromInt(300000)) {
			t.Errorf("expected subtotal 300000, got %s", view.Subtotal)
		}
		if !view.ShippingFee.Equal(decimal.NewFromInt(30000)) {
			t.Errorf("expected shipping fee 30000, got %s", view.ShippingFee)
		}
		if !view.FinalTotal.Equal(decimal.NewFromInt(330000)) {
			t.Errorf("expected final total 330000, got %s", view.FinalTotal)
		}
	})

	t.Run("previews coupon without consuming usage", func(t *testing.T) {
		carts := &mockCartStore{
			getFn: func(ctx context.Context, sessionKey string) (*domain.Cart, error) {
				cart := &domain.Cart{}
				cart.AddLine(1, "Keyboard", decimal.NewFromInt(100000), 2)
				return cart, nil
			},
		}
		coupon := &domain.Coupon{
			ID:             7,
			Code:           "SAVE10",
			Discount:       domain.PercentageDiscount(decimal.NewFromInt(10), nil),
			MinOrderAmount: decimal.NewFromInt(100000),
			StartDate:      time.Now().Add(-time.Hour),
			EndDate:        time.Now().Add(time.Hour),
			Active:         true,
		}
		coupons := &mockCouponRepository{
			getByCodeFn: func(ctx context.Context, code string) (*domain.Coupon, error) {
				return coupon, nil
			},
		}

		handler := queries.NewViewCartQueryHandler(carts, coupons, domain.DefaultShippingPolicy())

		view, err := handler.Handle(context.Background(), queries.ViewCartQuery{SessionKey: "session-1", CouponCode: "SAVE10"})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !view.Discount.Equal(decimal.NewFromInt(20000)) {
			t.Errorf("expected discount 20000, got %s", view.Discount)
		}
		if view.CouponCode != "SAVE10" {
			t.Errorf("expected coupon code SAVE10, got %s", view.CouponCode)
		}
		if !view.FinalTotal.Equal(decimal.NewFromInt(210000)) {
			t.Errorf("expected final total 210000, got %s", view.FinalTotal)
		}
		if coupon.UsedCount != 0 {
			t.Errorf("preview must not consume usage, used count = %d", coupon.UsedCount)
		}
	})

	t.Run("returns typed error for rejected coupon", func(t *testing.T) {
		carts := &mockCartStore{
			getFn: func(ctx context.Context, sessionKey string) (*domain.Cart, error) {
				cart := &domain.Cart{}
				cart.AddLine(1, "Cable", decimal.NewFromInt(10000), 1)
				return cart, nil
			},
		}
		coupons := &mockCouponRepository{
			getByCodeFn: func(ctx context.Context, code string) (*domain.Coupon, error) {
				return &domain.Coupon{
					Code:           "SAVE10",
					Discount:       domain.PercentageDiscount(decimal.NewFromInt(10), nil),
					MinOrderAmount: decimal.NewFromInt(100000),
					StartDate:      time.Now().Add(-time.Hour),
					EndDate:        time.Now().Add(time.Hour),
					Active:         true,
				}, nil
			},
		}

		handler := queries.NewViewCartQueryHandler(carts, coupons, domain.DefaultShippingPolicy())

		_, err := handler.Handle(context.Background(), queries.ViewCartQuery{SessionKey: "session-1", CouponCode: "SAVE10"})

		var minErr *domain.BelowMinimumOrderError
		if !errors.As(err, &minErr) {
			t.Fatalf("expected BelowMinimumOrderError, got %v", err)
		}
	})

	t.Run("rejects missing session key", func(t *testing.T) {
		handler := queries.NewViewCartQueryHandler(&mockCartStore{}, &mockCouponRepository{}, domain.DefaultShippingPolicy())

		_, err := handler.Handle(context.Background(), queries.ViewCartQuery{})

		var valErr *domain.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
