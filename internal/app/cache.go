package app

import (
	"context"
	"log/slog"

	"github.com/updownlabs/updown/internal/cache/redis"
	"github.com/updownlabs/updown/internal/domain"
)

// cachedMarkets decorates a MarketStore with a Redis read-through cache.
// Cache failures never fail the operation; the store remains authoritative.
type cachedMarkets struct {
	store  domain.MarketStore
	cache  *redis.MarketCache
	logger *slog.Logger
}

func newCachedMarkets(store domain.MarketStore, cache *redis.MarketCache, logger *slog.Logger) *cachedMarkets {
	return &cachedMarkets{store: store, cache: cache, logger: logger}
}

func (c *cachedMarkets) Create(ctx context.Context, m domain.Market) (uint64, error) {
	id, err := c.store.Create(ctx, m)
	if err != nil {
		return 0, err
	}
	m.ID = id
	if err := c.cache.Set(ctx, m); err != nil {
		c.logger.WarnContext(ctx, "cache: set market failed", slog.String("error", err.Error()))
	}
	return id, nil
}

func (c *cachedMarkets) Get(ctx context.Context, id uint64) (domain.Market, error) {
	if m, err := c.cache.Get(ctx, id); err == nil {
		return m, nil
	}
	m, err := c.store.Get(ctx, id)
	if err != nil {
		return domain.Market{}, err
	}
	if err := c.cache.Set(ctx, m); err != nil {
		c.logger.WarnContext(ctx, "cache: set market failed", slog.String("error", err.Error()))
	}
	return m, nil
}

func (c *cachedMarkets) Update(ctx context.Context, m domain.Market) error {
	if err := c.store.Update(ctx, m); err != nil {
		return err
	}
	// Invalidate rather than write through so a racing reader cannot pin a
	// stale record past the store update.
	if err := c.cache.Invalidate(ctx, m.ID); err != nil {
		c.logger.WarnContext(ctx, "cache: invalidate market failed", slog.String("error", err.Error()))
	}
	return nil
}

func (c *cachedMarkets) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	return c.store.List(ctx, opts)
}

func (c *cachedMarkets) Count(ctx context.Context) (uint64, error) {
	return c.store.Count(ctx)
}
