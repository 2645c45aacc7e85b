package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrCouponNotFound is returned when the code does not resolve to an active coupon.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExpired is returned when now falls outside the coupon validity window.
	ErrCouponExpired = errors.New("coupon expired")

	// ErrCouponExhausted is returned when the coupon usage limit has been reached.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// InsufficientStockError reports a quantity request that exceeds live stock.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// BelowMinimumOrderError reports a cart subtotal below the coupon's minimum.
type BelowMinimumOrderError struct {
	MinRequired decimal.Decimal
}

func (e *BelowMinimumOrderError) Error() string {
	return fmt.Sprintf("order subtotal below coupon minimum of %s", e.MinRequired)
}

// ValidationError reports a missing or malformed checkout field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotCancellableError reports a cancellation attempt against an order whose
// status is outside the configured cancellable set.
type NotCancellableError struct {
	Status OrderStatus
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("order in status %s cannot be cancelled", e.Status)
}
