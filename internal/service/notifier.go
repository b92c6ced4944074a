package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/spiderhome/internal/middleware"
	"github.com/iliyamo/spiderhome/internal/queue"
)

// CacheInvalidator drops every cached public response.
type CacheInvalidator struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

// NewCacheInvalidator returns nil when rdb is nil.
func NewCacheInvalidator(rdb *redis.Client, prefix string, logger *slog.Logger) *CacheInvalidator {
	if rdb == nil {
		return nil
	}
	return &CacheInvalidator{rdb: rdb, prefix: prefix, logger: logger}
}

// Invalidate clears the cache.  It is also the catalog consumer's handler.
func (ci *CacheInvalidator) Invalidate(ctx context.Context, ev queue.CatalogChangedEvent) error {
	if ci == nil {
		return nil
	}
	n, err := middleware.InvalidateCache(ctx, ci.rdb, ci.prefix)
	if err != nil {
		return err
	}
	ci.logger.Debug("public cache cleared",
		slog.String("resource", ev.Resource), slog.String("action", ev.Action), slog.Int("keys", n))
	return nil
}

// EventPublisher sends a catalog event to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CatalogChangedEvent) error
}

// CacheClearer drops cached public responses after a catalog change.
type CacheClearer interface {
	Invalidate(ctx context.Context, ev queue.CatalogChangedEvent) error
}

// Notifier reacts to a committed catalog write.  The local cache is cleared
// before the request returns; the broker event tells other instances (and
// this one's consumer, harmlessly) to do the same.  Either field may be nil.
type Notifier struct {
	Publisher EventPublisher
	Cache     CacheClearer
	Logger    *slog.Logger
}

// NewNotifier keeps nil pointers out of the interface fields.
func NewNotifier(pub *Publisher, cache *CacheInvalidator, logger *slog.Logger) *Notifier {
	n := &Notifier{Logger: logger}
	if pub != nil {
		n.Publisher = pub
	}
	if cache != nil {
		n.Cache = cache
	}
	return n
}

// CatalogChanged never fails the calling request: the write already
// committed, so errors are only logged.
func (n *Notifier) CatalogChanged(ctx context.Context, ev queue.CatalogChangedEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if n.Cache != nil {
		if err := n.Cache.Invalidate(ctx, ev); err != nil {
			n.Logger.Warn("public cache not cleared", slog.String("resource", ev.Resource), slog.Any("error", err))
		}
	}
	if n.Publisher != nil {
		if err := n.Publisher.Publish(ctx, ev); err != nil {
			n.Logger.Warn("catalog event not published", slog.String("resource", ev.Resource), slog.Any("error", err))
		}
	}
}
