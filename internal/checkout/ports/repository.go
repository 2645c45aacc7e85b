package ports

import (
	"context"
	"errors"

	"github.com/techshop/checkout/internal/checkout/domain"
)

// OrderStore exposes the transactional persistence operations the checkout
// flow depends on. PlaceOrder and Cancel are all-or-nothing: order rows,
// stock movements, and coupon redemption commit together or not at all.
type OrderStore interface {
	// PlaceOrder persists the order and its lines, decrements stock for
	// every line, and, when couponID is non-nil, redeems one coupon use and
	// records it. Stock and coupon mutations use conditional updates so
	// concurrent checkouts can never oversell or overspend; a failed guard
	// rolls the whole unit back and surfaces the typed domain error.
	PlaceOrder(ctx context.Context, order domain.Order, lines []domain.OrderLine, couponID *int64) error

	// Cancel flips the order to cancelled and restores stock for each line,
	// in one transaction. Only orders whose current status is in allowed are
	// cancellable; the status flip is conditional, so two concurrent
	// cancellations can never double-credit stock.
	Cancel(ctx context.Context, orderID, reason string, allowed []domain.OrderStatus) (*domain.Order, error)

	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetLines(ctx context.Context, orderID string) ([]domain.OrderLine, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)

	// AdvanceStatus moves the order forward along the state machine,
	// stamping the shipped/delivered timestamps as appropriate.
	AdvanceStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error)
}

// ListFilter narrows list queries by status and pagination.
type ListFilter struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

// ProductCatalog is the read side of the product table the checkout flow
// consumes. Stock checks always go through here for a fresh value.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
}

// CouponRepository resolves coupon codes. Lookup is case-insensitive.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// IdentityProvider supplies the authenticated user for the current request,
// or nil for guest checkout.
type IdentityProvider interface {
	CurrentUserID(ctx context.Context) *int64
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrProductNotFound is returned when a product is missing or inactive.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidTransition is returned for a status advance the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")
)
