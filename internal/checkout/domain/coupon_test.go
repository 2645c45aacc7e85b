package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/techshop/checkout/internal/checkout/domain"
)

func intPtr(v int) *int                         { return &v }
func decPtr(v decimal.Decimal) *decimal.Decimal { return &v }

func activeCoupon() *domain.Coupon {
	return &domain.Coupon{
		ID:             1,
		Code:           "SAVE10",
		Discount:       domain.PercentageDiscount(decimal.NewFromInt(10), decPtr(decimal.NewFromInt(15000))),
		MinOrderAmount: decimal.NewFromInt(100000),
		UsageLimit:     intPtr(100),
		UsedCount:      0,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
		Active:         true,
	}
}

func TestCouponEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		mutate   func(c *domain.Coupon)
		subtotal decimal.Decimal
		at       time.Time
		wantErr  error
		wantAmt  decimal.Decimal
	}{
		{
			name:     "percentage below cap",
			subtotal: decimal.NewFromInt(120000),
			at:       now,
			wantAmt:  decimal.NewFromInt(12000),
		},
		{
			name:     "percentage clamped to max amount",
			subtotal: decimal.NewFromInt(200000),
			at:       now,
			wantAmt:  decimal.NewFromInt(15000),
		},
		{
			name:     "inactive coupon looks absent",
			mutate:   func(c *domain.Coupon) { c.Active = false },
			subtotal: decimal.NewFromInt(120000),
			at:       now,
			wantErr:  domain.ErrCouponNotFound,
		},
		{
			name:     "before start date",
			subtotal: decimal.NewFromInt(120000),
			at:       time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			wantErr:  domain.ErrCouponExpired,
		},
		{
			name:     "after end date",
			subtotal: decimal.NewFromInt(120000),
			at:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantErr:  domain.ErrCouponExpired,
		},
		{
			name:     "window is inclusive at the end",
			subtotal: decimal.NewFromInt(120000),
			at:       time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
			wantAmt:  decimal.NewFromInt(12000),
		},
		{
			name:     "usage limit reached",
			mutate:   func(c *domain.Coupon) { c.UsedCount = 100 },
			subtotal: decimal.NewFromInt(120000),
			at:       now,
			wantErr:  domain.ErrCouponExhausted,
		},
		{
			name:     "expiry wins over exhaustion",
			mutate:   func(c *domain.Coupon) { c.UsedCount = 100 },
			subtotal: decimal.NewFromInt(120000),
			at:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantErr:  domain.ErrCouponExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := activeCoupon()
			if tt.mutate != nil {
				tt.mutate(coupon)
			}

			result, err := coupon.Evaluate(tt.subtotal, tt.at)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.Amount.Equal(tt.wantAmt) {
				t.Errorf("expected discount %s, got %s", tt.wantAmt, result.Amount)
			}
			if result.CouponCode != "SAVE10" {
				t.Errorf("expected coupon code SAVE10, got %s", result.CouponCode)
			}
		})
	}
}

func TestCouponEvaluateBelowMinimum(t *testing.T) {
	coupon := activeCoupon()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	_, err := coupon.Evaluate(decimal.NewFromInt(99999), now)

	var minErr *domain.BelowMinimumOrderError
	if !errors.As(err, &minErr) {
		t.Fatalf("expected BelowMinimumOrderError, got %v", err)
	}
	if !minErr.MinRequired.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("expected min required 100000, got %s", minErr.MinRequired)
	}
}

func TestFixedAmountDiscountCappedAtSubtotal(t *testing.T) {
	coupon := activeCoupon()
	coupon.Discount = domain.FixedAmountDiscount(decimal.NewFromInt(500000))
	coupon.MinOrderAmount = decimal.Zero
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	result, err := coupon.Evaluate(decimal.NewFromInt(120000), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Amount.Equal(decimal.NewFromInt(120000)) {
		t.Errorf("expected discount capped at subtotal 120000, got %s", result.Amount)
	}
}

func TestCouponEvaluateDoesNotConsumeUsage(t *testing.T) {
	coupon := activeCoupon()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := coupon.Evaluate(decimal.NewFromInt(120000), now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if coupon.UsedCount != 0 {
		t.Errorf("expected used count to remain 0, got %d", coupon.UsedCount)
	}
}

func TestDiscountValidate(t *testing.T) {
	tests := []struct {
		name     string
		discount domain.Discount
		wantErr  bool
	}{
		{name: "valid percentage", discount: domain.PercentageDiscount(decimal.NewFromInt(10), nil)},
		{name: "valid percentage with cap", discount: domain.PercentageDiscount(decimal.NewFromInt(10), decPtr(decimal.NewFromInt(15000)))},
		{name: "valid fixed amount", discount: domain.FixedAmountDiscount(decimal.NewFromInt(20000))},
		{name: "zero percentage", discount: domain.PercentageDiscount(decimal.Zero, nil), wantErr: true},
		{name: "percentage above 100", discount: domain.PercentageDiscount(decimal.NewFromInt(101), nil), wantErr: true},
		{name: "non-positive cap", discount: domain.PercentageDiscount(decimal.NewFromInt(10), decPtr(decimal.Zero)), wantErr: true},
		{name: "negative fixed amount", discount: domain.FixedAmountDiscount(decimal.NewFromInt(-5)), wantErr: true},
		{name: "fixed amount with cap", discount: domain.Discount{Kind: domain.DiscountFixedAmount, Value: decimal.NewFromInt(5000), MaxAmount: decPtr(decimal.NewFromInt(100))}, wantErr: true},
		{name: "unknown kind", discount: domain.Discount{Kind: "bogus", Value: decimal.NewFromInt(10)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.discount.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestCouponRemainingUsage(t *testing.T) {
	tests := []struct {
		name   string
		limit  *int
		used   int
		want   int
	}{
		{name: "unlimited", limit: nil, used: 50, want: -1},
		{name: "some remaining", limit: intPtr(100), used: 30, want: 70},
		{name: "exhausted", limit: intPtr(100), used: 100, want: 0},
		{name: "over limit clamps to zero", limit: intPtr(100), used: 120, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := activeCoupon()
			coupon.UsageLimit = tt.limit
			coupon.UsedCount = tt.used

			if got := coupon.RemainingUsage(); got != tt.want {
				t.Errorf("expected remaining %d, got %d", tt.want, got)
			}
		})
	}
}
