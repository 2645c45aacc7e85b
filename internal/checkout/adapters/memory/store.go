package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/techshop/checkout/internal/checkout/domain"
	"github.com/techshop/checkout/internal/checkout/ports"
)

// Store is an in-memory ports.OrderStore for local development and tests. It
// reproduces the database's conditional-update semantics under a single
// mutex: check-and-decrement stock and bounded coupon increments happen
// atomically, so the concurrency tests exercise the same guarantees the
// Postgres adapter provides.
type Store struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	lines    map[string][]domain.OrderLine
	products map[int64]*domain.Product
	coupons  map[int64]*domain.Coupon
	usages   []CouponUsage
}

// CouponUsage records one redemption, mirroring the coupon_usage table.
type CouponUsage struct {
	CouponID int64
	OrderID  string
	UserID   *int64
	UsedAt   time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		orders:   make(map[string]domain.Order),
		lines:    make(map[string][]domain.OrderLine),
		products: make(map[int64]*domain.Product),
		coupons:  make(map[int64]*domain.Coupon),
	}
}

// SeedProduct registers a product. Test setup helper.
func (s *Store) SeedProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := product
	s.products[product.ID] = &p
}

// SeedCoupon registers a coupon. Test setup helper.
func (s *Store) SeedCoupon(coupon domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := coupon
	s.coupons[coupon.ID] = &c
}

// StockOf returns the current stock for a product.
func (s *Store) StockOf(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.StockQuantity
	}
	return 0
}

// UsedCountOf returns the current used count for a coupon.
func (s *Store) UsedCountOf(couponID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.coupons[couponID]; ok {
		return c.UsedCount
	}
	return 0
}

// Usages returns the recorded coupon redemptions.
func (s *Store) Usages() []CouponUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CouponUsage, len(s.usages))
	copy(out, s.usages)
	return out
}

// PlaceOrder applies all mutations or none: failed stock or coupon guards
// roll back any decrements already applied within this call.
func (s *Store) PlaceOrder(_ context.Context, order domain.Order, lines []domain.OrderLine, couponID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decremented := make(map[int64]int)
	rollback := func() {
		for id, qty := range decremented {
			s.products[id].StockQuantity += qty
		}
	}

	for _, line := range lines {
		product, ok := s.products[line.ProductID]
		if !ok || !product.Active {
			rollback()
			return ports.ErrProductNotFound
		}
		if product.StockQuantity < line.Quantity {
			rollback()
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: product.StockQuantity,
				Requested: line.Quantity,
			}
		}
		product.StockQuantity -= line.Quantity
		decremented[line.ProductID] += line.Quantity
	}

	if couponID != nil {
		coupon, ok := s.coupons[*couponID]
		if !ok {
			rollback()
			return domain.ErrCouponNotFound
		}
		if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
			rollback()
			return domain.ErrCouponExhausted
		}
		coupon.UsedCount++
		s.usages = append(s.usages, CouponUsage{
			CouponID: *couponID,
			OrderID:  order.ID,
			UserID:   order.UserID,
			UsedAt:   order.OrderedAt,
		})
	}

	s.orders[order.ID] = order
	stored := make([]domain.OrderLine, len(lines))
	copy(stored, lines)
	s.lines[order.ID] = stored

	return nil
}

// Cancel flips the status and restores stock once. Repeated or concurrent
// cancels of the same order fail the status check and leave stock alone.
func (s *Store) Cancel(_ context.Context, orderID, reason string, allowed []domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}

	permitted := false
	for _, status := range allowed {
		if order.Status == status {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, &domain.NotCancellableError{Status: order.Status}
	}

	now := time.Now().UTC()
	order.Status = domain.StatusCancelled
	order.CancelledAt = &now
	order.CancelReason = reason
	s.orders[orderID] = order

	for _, line := range s.lines[orderID] {
		if product, ok := s.products[line.ProductID]; ok {
			product.StockQuantity += line.Quantity
		}
	}

	result := order
	return &result, nil
}

// GetByID fetches a single order by identifier.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	result := order
	return &result, nil
}

// GetLines returns the line snapshots for an order.
func (s *Store) GetLines(_ context.Context, orderID string) ([]domain.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.lines[orderID]
	if !ok {
		return nil, nil
	}
	result := make([]domain.OrderLine, len(lines))
	copy(result, lines)
	return result, nil
}

// List returns orders newest first, matching the database adapter's ordering.
// Pagination is 1-based.
func (s *Store) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Order
	for _, order := range s.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderedAt.After(result[j].OrderedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}

	slice := make([]domain.Order, end-start)
	copy(slice, result[start:end])

	return slice, nil
}

// AdvanceStatus moves the order forward along the state machine.
func (s *Store) AdvanceStatus(_ context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, ports.ErrInvalidTransition
	}

	now := time.Now().UTC()
	order.Status = next
	if next == domain.StatusShipped {
		order.ShippedAt = &now
	}
	if next == domain.StatusDelivered {
		order.DeliveredAt = &now
	}
	s.orders[id] = order

	result := order
	return &result, nil
}
