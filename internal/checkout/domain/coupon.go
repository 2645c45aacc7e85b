package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind is the closed set of coupon discount variants.
type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "percentage"
	DiscountFixedAmount DiscountKind = "fixed_amount"
)

// Discount describes how a coupon reduces the order subtotal. MaxAmount is
// only meaningful for percentage discounts, where it caps the computed
// reduction; Validate rejects the combinations the kinds don't allow.
type Discount struct {
	Kind      DiscountKind     `json:"kind"`
	Value     decimal.Decimal  `json:"value"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
}

// PercentageDiscount builds a percentage discount with an optional cap.
func PercentageDiscount(value decimal.Decimal, maxAmount *decimal.Decimal) Discount {
	return Discount{Kind: DiscountPercentage, Value: value, MaxAmount: maxAmount}
}

// FixedAmountDiscount builds a fixed-amount discount.
func FixedAmountDiscount(value decimal.Decimal) Discount {
	return Discount{Kind: DiscountFixedAmount, Value: value}
}

// Validate ensures the discount variant is well formed.
func (d Discount) Validate() error {
	switch d.Kind {
	case DiscountPercentage:
		if d.Value.LessThanOrEqual(decimal.Zero) || d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return errors.New("percentage value must be in (0, 100]")
		}
		if d.MaxAmount != nil && d.MaxAmount.LessThanOrEqual(decimal.Zero) {
			return errors.New("max discount amount must be positive")
		}
	case DiscountFixedAmount:
		if d.Value.LessThanOrEqual(decimal.Zero) {
			return errors.New("fixed amount must be positive")
		}
		if d.MaxAmount != nil {
			return errors.New("fixed amount discounts do not take a cap")
		}
	default:
		return errors.New("unknown discount kind")
	}
	return nil
}

// amountFor computes the reduction for a given subtotal. The result is always
// capped at the subtotal so the final amount can never go negative.
func (d Discount) amountFor(subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Kind {
	case DiscountPercentage:
		amount = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
		if d.MaxAmount != nil && amount.GreaterThan(*d.MaxAmount) {
			amount = *d.MaxAmount
		}
	case DiscountFixedAmount:
		amount = d.Value
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount
}

// Coupon is a discount code with a validity window, usage cap, and
// minimum-order rule. UsedCount is only ever incremented, and only at order
// commit; evaluation never consumes a use.
type Coupon struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code"`
	Description    string          `json:"description"`
	Discount       Discount        `json:"discount"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	UsageLimit     *int            `json:"usage_limit,omitempty"`
	UsedCount      int             `json:"used_count"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Active         bool            `json:"active"`
}

// DiscountResult is the outcome of a successful coupon evaluation.
type DiscountResult struct {
	CouponID   int64
	CouponCode string
	Amount     decimal.Decimal
}

// Evaluate validates the coupon against the clock, usage limit, and order
// minimum, then computes the discount for the given subtotal. Checks run in a
// fixed order and the first failure wins. The window is inclusive on both
// ends.
func (c *Coupon) Evaluate(subtotal decimal.Decimal, now time.Time) (*DiscountResult, error) {
	if !c.Active {
		return nil, ErrCouponNotFound
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return nil, ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return nil, ErrCouponExhausted
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return nil, &BelowMinimumOrderError{MinRequired: c.MinOrderAmount}
	}

	return &DiscountResult{
		CouponID:   c.ID,
		CouponCode: c.Code,
		Amount:     c.Discount.amountFor(subtotal),
	}, nil
}

// RemainingUsage returns how many redemptions are left, or -1 for unlimited.
func (c *Coupon) RemainingUsage() int {
	if c.UsageLimit == nil {
		return -1
	}
	remaining := *c.UsageLimit - c.UsedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
