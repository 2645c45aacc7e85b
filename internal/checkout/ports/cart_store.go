package ports

import (
	"context"

	"github.com/techshop/checkout/internal/checkout/domain"
)

// CartStore persists session carts. Carts are ephemeral, single-writer (one
// session), and keyed by an opaque session identifier supplied by the caller.
type CartStore interface {
	// Get returns the cart for the session key, or an empty cart when none
	// has been saved yet.
	Get(ctx context.Context, sessionKey string) (*domain.Cart, error)
	Save(ctx context.Context, sessionKey string, cart *domain.Cart) error
	Clear(ctx context.Context, sessionKey string) error
}
