package quote

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

// Store caches quotes. cache.RedisStore implements it.
type Store interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, bool, error)
	SetQuote(ctx context.Context, q model.Quote, ttl time.Duration) error
}

// Cached serves quotes from a Store and falls through to the provider on a
// miss. Cache failures are logged and never fail the lookup.
type Cached struct {
	next   Provider
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with a cache.
func NewCached(next Provider, store Store, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, store: store, ttl: ttl, logger: logger.With("component", "quote_cache")}
}

// Quote implements Provider.
func (c *Cached) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = normalize(symbol)

	q, ok, err := c.store.GetQuote(ctx, symbol)
	if err != nil {
		c.logger.Warn("quote cache read failed", "symbol", symbol, "error", err)
	} else if ok {
		return q, nil
	}

	q, err = c.next.Quote(ctx, symbol)
	if err != nil {
		return model.Quote{}, err
	}
	if err := c.store.SetQuote(ctx, q, c.ttl); err != nil {
		c.logger.Warn("quote cache write failed", "symbol", symbol, "error", err)
	}
	return q, nil
}
