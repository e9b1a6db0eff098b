package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const productKeyFormat = "product:%d"

// CachedStore decorates a ProductStore with a redis read-through cache for lookups by ID.
// Cache faults are logged and never fail the call; the database stays the source of truth.
type CachedStore struct {
	next   ProductStore
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps next with a redis cache.
func NewCachedStore(next ProductStore, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

func productKey(id int64) string {
	return fmt.Sprintf(productKeyFormat, id)
}

func (c *CachedStore) Create(ctx context.Context, name string, price decimal.Decimal, available bool) (*Product, error) {
	return c.next.Create(ctx, name, price, available)
}

func (c *CachedStore) CountAvailable(ctx context.Context) (int64, error) {
	return c.next.CountAvailable(ctx)
}

func (c *CachedStore) FindAll(ctx context.Context, offset, limit int64) ([]Product, error) {
	return c.next.FindAll(ctx, offset, limit)
}

// FindByID serves the product from cache, loading and caching it on a miss.
func (c *CachedStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	key := productKey(id)
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Product
		if err := json.Unmarshal(data, &p); err == nil && p.ID == id {
			return &p, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", key)
		c.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "cache get failed", "key", key, "error", err)
	}

	product, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, *product)
	return product, nil
}

// FindByIDs reads what it can with one MGET and loads the rest from the next store.
func (c *CachedStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "cache mget failed", "error", err)
		values = make([]any, len(ids))
	}

	found := make([]Product, 0, len(ids))
	var missing []int64
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var p Product
		if err := json.Unmarshal([]byte(s), &p); err != nil || p.ID != ids[i] {
			c.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", keys[i])
			missing = append(missing, ids[i])
			continue
		}
		found = append(found, p)
	}

	if len(missing) > 0 {
		loaded, err := c.next.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		c.storeMany(ctx, loaded)
		found = append(found, loaded...)
	}

	slices.SortFunc(found, func(a, b Product) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return found, nil
}

var _ CacheInvalidator = (*CachedStore)(nil)

func (c *CachedStore) Update(ctx context.Context, id int64, changes ProductChanges) (*Product, error) {
	product, err := c.next.Update(ctx, id, changes)
	c.evict(ctx, id)
	return product, err
}

func (c *CachedStore) Deactivate(ctx context.Context, id int64) (*Product, error) {
	product, err := c.next.Deactivate(ctx, id)
	c.evict(ctx, id)
	return product, err
}

// Invalidate deletes the cached copies of ids.
func (c *CachedStore) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache delete failed", "ids", ids, "error", err)
	}
}

func (c *CachedStore) store(ctx context.Context, p Product) {
	data, err := json.Marshal(p)
	if err != nil {
		c.logger.WarnContext(ctx, "cache marshal failed", "id", p.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache set failed", "id", p.ID, "error", err)
	}
}

func (c *CachedStore) storeMany(ctx context.Context, products []Product) {
	if len(products) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			c.logger.WarnContext(ctx, "cache marshal failed", "id", p.ID, "error", err)
			continue
		}
		pipe.Set(ctx, productKey(p.ID), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "cache pipeline failed", "error", err)
	}
}

func (c *CachedStore) evict(ctx context.Context, id int64) {
	c.Invalidate(ctx, id)
}
