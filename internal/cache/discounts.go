// Package cache keeps hot, read-mostly data in Redis as JSON payloads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-api/internal/domain"

	"github.com/redis/go-redis/v9"
)

const discountCatalogKey = "checkout:discounts:catalog"

// DiscountCache stores the full discount catalog under a single key.
// A nil *DiscountCache or one without a client behaves as an always-empty cache.
type DiscountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDiscountCache constructs a cache helper
func NewDiscountCache(client *redis.Client, ttl time.Duration) *DiscountCache {
	return &DiscountCache{client: client, ttl: ttl}
}

func (c *DiscountCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached catalog and reports whether the key existed
func (c *DiscountCache) Get(ctx context.Context) ([]domain.Discount, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, discountCatalogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read discount cache: %w", err)
	}

	var discounts []domain.Discount
	if err := json.Unmarshal(data, &discounts); err != nil {
		return nil, false, fmt.Errorf("failed to decode discount cache: %w", err)
	}

	return discounts, true, nil
}

// Set serialises the catalog and stores it with the configured TTL
func (c *DiscountCache) Set(ctx context.Context, discounts []domain.Discount) error {
	if !c.enabled() {
		return nil
	}

	data, err := json.Marshal(discounts)
	if err != nil {
		return fmt.Errorf("failed to encode discount cache: %w", err)
	}

	if err := c.client.Set(ctx, discountCatalogKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write discount cache: %w", err)
	}

	return nil
}

// Invalidate drops the cached catalog
func (c *DiscountCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}

	if err := c.client.Del(ctx, discountCatalogKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate discount cache: %w", err)
	}

	return nil
}
