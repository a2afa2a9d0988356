// Package cache serves catalog snapshots from memory, reloading at most once
// per refresh interval. Concurrent callers that find the snapshot stale share
// one reload through singleflight.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	catalogmetrics "caseflow/internal/catalog/metrics"
	"caseflow/internal/catalog/models"
)

// Loader reads the full catalog.
type Loader interface {
	Load(ctx context.Context) (models.Data, error)
}

// Cache is safe for concurrent use.
type Cache struct {
	loader   Loader
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *catalogmetrics.Metrics

	mu      sync.RWMutex
	current *models.Snapshot
	group   singleflight.Group
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock overrides time.Now. Tests use it to age the snapshot.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(loader Loader, interval time.Duration, opts ...Option) *Cache {
	c := &Cache{loader: loader, interval: interval, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current catalog, reloading it when older than the
// refresh interval. A failed reload keeps serving the stale snapshot; only a
// cache that has never loaded returns the error.
func (c *Cache) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	c.mu.RLock()
	snap := c.current
	c.mu.RUnlock()

	if snap != nil && c.now().Sub(snap.LoadedAt) < c.interval {
		return snap, nil
	}

	fresh, err := c.refresh(ctx, false)
	if err != nil {
		if snap != nil {
			if c.logger != nil {
				c.logger.WarnContext(ctx, "catalog refresh failed, serving stale snapshot",
					"error", err,
					"loaded_at", snap.LoadedAt,
				)
			}
			return snap, nil
		}
		return nil, err
	}
	return fresh, nil
}

// Refresh forces a reload. The background refresher and the seed command call it
// after catalog rows change.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx, true)
	return err
}

func (c *Cache) refresh(ctx context.Context, force bool) (*models.Snapshot, error) {
	v, err, _ := c.group.Do("catalog", func() (any, error) {
		// A caller that missed the previous flight finds the snapshot it produced.
		if !force {
			c.mu.RLock()
			cur := c.current
			c.mu.RUnlock()
			if cur != nil && c.now().Sub(cur.LoadedAt) < c.interval {
				return cur, nil
			}
		}

		start := time.Now()
		d, err := c.loader.Load(ctx)
		if c.metrics != nil {
			c.metrics.ObserveRefresh(start, err)
		}
		if err != nil {
			return nil, err
		}
		snap := models.NewSnapshot(d, c.now())
		c.mu.Lock()
		c.current = snap
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.DebugContext(ctx, "catalog snapshot loaded", "counts", snap.Counts())
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Snapshot), nil
}

// Run refreshes on every tick so request paths rarely pay for a reload.
func (c *Cache) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil && c.logger != nil {
				c.logger.WarnContext(ctx, "background catalog refresh failed", "error", err)
			}
		}
	}
}
