package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/dedup"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/model"
	"github.com/rickgao/tickersense/internal/sentiment"
)

// NewsSource is the news search collaborator.
type NewsSource interface {
	ForEntity(ctx context.Context, e model.TrackedEntity, from time.Time) fetch.Result[[]model.RawItem]
}

// Purger deletes items created before a cutoff.
type Purger interface {
	Purge(ctx context.Context, source model.Source, before time.Time) (int64, error)
}

// NewsConfig configures the news crawler.
type NewsConfig struct {
	Lookback      time.Duration
	RetentionDays int // 0 disables purging
}

// DefaultNewsConfig returns the standard news settings.
func DefaultNewsConfig() NewsConfig {
	return NewsConfig{
		Lookback:      7 * 24 * time.Hour,
		RetentionDays: 30,
	}
}

// NewsTotals are cumulative crawler counters.
type NewsTotals struct {
	Fetched    int64
	Saved      int64
	Duplicates int64
	Errors     int64
	Purged     int64
}

// NewsCrawler ingests news articles per entity.
type NewsCrawler struct {
	cfg    NewsConfig
	src    NewsSource
	ledger dedup.Ledger
	purger Purger
	scorer *sentiment.Scorer
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.Mutex
	totals NewsTotals
}

// NewNewsCrawler creates a news crawler. purger may be nil.
func NewNewsCrawler(cfg NewsConfig, src NewsSource, ledger dedup.Ledger, purger Purger, scorer *sentiment.Scorer, clk clock.Clock, logger *slog.Logger) *NewsCrawler {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &NewsCrawler{
		cfg:    cfg,
		src:    src,
		ledger: ledger,
		purger: purger,
		scorer: scorer,
		clock:  clk,
		logger: logger.With("component", "news_crawler"),
	}
}

// Totals returns cumulative counters.
func (n *NewsCrawler) Totals() NewsTotals {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.totals
}

// Collect fetches, scores and commits the news for one entity. Every
// article is returned newest-first, whether or not it was new to the ledger.
func (n *NewsCrawler) Collect(ctx context.Context, e model.TrackedEntity) fetch.Result[[]model.Item] {
	res := n.src.ForEntity(ctx, e, n.clock.Now().Add(-n.cfg.Lookback))
	if res.Status != fetch.StatusOK {
		if res.Status != fetch.StatusNoData {
			n.count(func(t *NewsTotals) { t.Errors++ })
		}
		return fetch.Result[[]model.Item]{Status: res.Status, Err: res.Err}
	}

	var saved, dupes int
	items := make([]model.Item, 0, len(res.Value))
	for _, r := range res.Value {
		item := model.Item{
			RawItem:     r,
			Fingerprint: dedup.ItemFingerprint(r),
			Sentiment:   n.scorer.Score(r.Text()),
		}
		inserted, err := n.ledger.Commit(ctx, item)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return fetch.Failed[[]model.Item](ctx.Err())
			}
			n.logger.Warn("commit failed", "symbol", e.Symbol, "url", r.URL, "error", err)
		case inserted:
			saved++
		default:
			dupes++
		}
		items = append(items, item)
	}

	n.count(func(t *NewsTotals) {
		t.Fetched += int64(len(items))
		t.Saved += int64(saved)
		t.Duplicates += int64(dupes)
	})
	n.logger.Debug("news collected", "symbol", e.Symbol, "articles", len(items), "new", saved, "duplicates", dupes)

	sortNewest(items)
	return fetch.From(items, len(items) == 0, nil)
}

// Purge removes news older than the retention period.
func (n *NewsCrawler) Purge(ctx context.Context) (int64, error) {
	if n.purger == nil || n.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := n.clock.Now().Add(-time.Duration(n.cfg.RetentionDays) * 24 * time.Hour)
	removed, err := n.purger.Purge(ctx, model.SourceNews, cutoff)
	if err != nil {
		return 0, err
	}
	n.count(func(t *NewsTotals) { t.Purged += removed })
	if removed > 0 {
		n.logger.Info("purged expired news", "removed", removed, "before", cutoff)
	}
	return removed, nil
}

func (n *NewsCrawler) count(fn func(*NewsTotals)) {
	n.mu.Lock()
	fn(&n.totals)
	n.mu.Unlock()
}
