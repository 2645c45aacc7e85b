package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order. The numeric IDs match the
// storefront's seed data, where 6 has always been the cancelled status.
type OrderStatus int

const (
	StatusPending   OrderStatus = 1
	StatusConfirmed OrderStatus = 2
	StatusShipped   OrderStatus = 3
	StatusDelivered OrderStatus = 4
	StatusCancelled OrderStatus = 6
)

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusShipped:
		return "shipped"
	case StatusDelivered:
		return "delivered"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal indicates whether the order can no longer change status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo enforces the forward path pending → confirmed → shipped →
// delivered. Cancellation is governed separately by CancellationPolicy.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed
	case StatusConfirmed:
		return next == StatusShipped
	case StatusShipped:
		return next == StatusDelivered
	default:
		return false
	}
}

// Order is the persisted result of a checkout. The amount fields are fixed at
// creation: FinalAmount = TotalAmount + ShippingFee - DiscountAmount, and
// nothing recomputes them afterward.
type Order struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	UserID          *int64          `json:"user_id,omitempty"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerEmail   string          `json:"customer_email"`
	ShippingAddress string          `json:"shipping_address"`
	Note            string          `json:"note"`
	OrderedAt       time.Time       `json:"ordered_at"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
}

// OrderLine is an immutable snapshot of a cart line at the moment the order
// was placed. TotalPrice = UnitPrice * Quantity by construction.
type OrderLine struct {
	OrderID     string          `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// PaymentStatusUnpaid is the payment status every order starts in.
const PaymentStatusUnpaid = "unpaid"
