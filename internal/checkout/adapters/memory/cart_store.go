package memory

import (
	"context"
	"sync"

	"github.com/techshop/checkout/internal/checkout/domain"
)

// CartStore is an in-memory ports.CartStore for local development and tests.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartStore constructs a new in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]domain.Cart)}
}

// Get returns a copy of the stored cart, or an empty cart for an unknown key.
func (s *CartStore) Get(_ context.Context, sessionKey string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[sessionKey]
	if !ok {
		return &domain.Cart{}, nil
	}
	lines := make([]domain.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	return &domain.Cart{Lines: lines}, nil
}

func (s *CartStore) Save(_ context.Context, sessionKey string, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]domain.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	s.carts[sessionKey] = domain.Cart{Lines: lines}
	return nil
}

func (s *CartStore) Clear(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionKey)
	return nil
}
