// Package cache provides a Redis-backed product cache for the hot catalog
// read path. Admin writes invalidate; checkout never reads from here.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"

	"github.com/keymart/keymart/internal/model"
)

// ProductCache caches product detail documents with a TTL.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProductCache constructs the cache around an established client.
func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: 0})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

func productKey(id uuid.UUID) string { return "product:" + id.String() }

// Get returns the cached product or redis.Nil-wrapped miss.
func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores the product for the configured TTL.
func (c *ProductCache) Set(ctx context.Context, p *model.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}

// Invalidate drops the cached product after an admin write or a sale that
// changed the unsold-key count.
func (c *ProductCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, productKey(id)).Err()
}
