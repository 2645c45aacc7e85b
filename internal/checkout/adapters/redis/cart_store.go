package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/techshop/checkout/internal/checkout/domain"
)

// CartTTL bounds how long an abandoned cart survives.
const CartTTL = 24 * time.Hour

// CartStore persists session carts in Redis as JSON values keyed by the
// session identifier. A missing key is an empty cart, not an error.
type CartStore struct {
	client *redis.Client
}

func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

func cartKey(sessionKey string) string {
	return fmt.Sprintf("cart:%s", sessionKey)
}

func (s *CartStore) Get(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	payload, err := s.client.Get(ctx, cartKey(sessionKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &domain.Cart{}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, sessionKey string, cart *domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(sessionKey), payload, CartTTL).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	return nil
}

func (s *CartStore) Clear(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, cartKey(sessionKey)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
