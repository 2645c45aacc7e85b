package memory

import (
	"context"
	"strings"

	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// Catalog serves product reads from the in-memory store so cart stock checks
// observe the same stock the checkout transaction mutates.
type Catalog struct {
	store *Store
}

func NewCatalog(store *Store) *Catalog {
	return &Catalog{store: store}
}

func (c *Catalog) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	product, ok := c.store.products[productID]
	if !ok || !product.Active {
		return nil, ports.ErrProductNotFound
	}
	result := *product
	return &result, nil
}

// CouponRepository resolves coupon codes from the in-memory store.
type CouponRepository struct {
	store *Store
}

func NewCouponRepository(store *Store) *CouponRepository {
	return &CouponRepository{store: store}
}

func (r *CouponRepository) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, coupon := range r.store.coupons {
		if strings.EqualFold(coupon.Code, code) {
			result := *coupon
			return &result, nil
		}
	}
	return nil, domain.ErrCouponNotFound
}
