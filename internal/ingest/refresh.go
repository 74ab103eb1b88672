package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/tickersense/internal/anomaly"
	"github.com/rickgao/tickersense/internal/cache"
	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/market"
	"github.com/rickgao/tickersense/internal/model"
	"github.com/rickgao/tickersense/internal/quote"
	"github.com/rickgao/tickersense/internal/sentiment"
)

// ErrNoSources means every collaborator failed for an entity.
var ErrNoSources = errors.New("all sources failed")

// Collector gathers scored items about one entity.
type Collector interface {
	Collect(ctx context.Context, e model.TrackedEntity) fetch.Result[[]model.Item]
}

// Entities selects and updates tracked entities.
type Entities interface {
	Stale(interval time.Duration, limit int) []model.TrackedEntity
	MarkRefreshed(symbol string, t time.Time)
}

// RetentionPurger drops expired items.
type RetentionPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// RefreshConfig configures the per-entity refresh pipeline.
type RefreshConfig struct {
	Interval    time.Duration // Entities refreshed longer ago than this are stale
	Limit       int           // Max entities per run; 0 means all
	Batch       BatchConfig
	MaxArticles int
	MaxPosts    int
	Confirm     market.ConfirmConfig
	Validate    market.ValidateConfig
}

// DefaultRefreshConfig returns the standard refresh settings.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Interval:    30 * time.Minute,
		Batch:       BatchConfig{Size: 50, Pause: 100 * time.Millisecond, Concurrency: 10},
		MaxArticles: 50,
		MaxPosts:    20,
		Confirm:     market.DefaultConfirmConfig(),
		Validate:    market.DefaultValidateConfig(),
	}
}

// RefreshDeps are the collaborators of a Refresher. Social, Quotes, History
// and Purger may be nil.
type RefreshDeps struct {
	Entities   Entities
	News       Collector
	Social     Collector
	Quotes     quote.Provider
	History    cache.History
	Aggregator *sentiment.Aggregator
	Weights    sentiment.SourceWeights
	Detector   *anomaly.Detector
	Sink       ResultSink
	Purger     RetentionPurger
}

// RefreshStats summarizes one refresh run.
type RefreshStats struct {
	RunID     string
	Selected  int
	Refreshed int
	Failed    int
	Flagged   int
	Duration  time.Duration
}

// RefreshTotals are cumulative refresher counters.
type RefreshTotals struct {
	Runs      int64
	Refreshed int64
	Failed    int64
	Flagged   int64
}

// Refresher recomputes results for stale entities.
type Refresher struct {
	cfg    RefreshConfig
	deps   RefreshDeps
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.Mutex
	totals RefreshTotals
}

// NewRefresher creates a refresher.
func NewRefresher(cfg RefreshConfig, deps RefreshDeps, clk clock.Clock, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Refresher{
		cfg:    cfg,
		deps:   deps,
		clock:  clk,
		logger: logger.With("component", "refresher"),
	}
}

// Interval returns the staleness interval.
func (r *Refresher) Interval() time.Duration { return r.cfg.Interval }

// Totals returns cumulative counters.
func (r *Refresher) Totals() RefreshTotals {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals
}

// Run refreshes every stale entity. Per-entity failures are counted, not
// returned; the entity stays stale and is retried on a later run.
func (r *Refresher) Run(ctx context.Context) (RefreshStats, error) {
	start := r.clock.Now()
	stats := RefreshStats{RunID: uuid.NewString()}

	ctx = fetch.StartCycle(ctx)

	stale := r.deps.Entities.Stale(r.cfg.Interval, r.cfg.Limit)
	stats.Selected = len(stale)
	if len(stale) == 0 {
		r.logger.Debug("no stale entities")
		return stats, nil
	}

	var flagged sync.Map
	outcomes := RunBatches(ctx, r.clock, stale, r.cfg.Batch, func(ctx context.Context, e model.TrackedEntity) error {
		res, err := r.RefreshEntity(ctx, e, stats.RunID)
		if err == nil && res.Anomaly.Flagged {
			flagged.Store(e.Symbol, true)
		}
		return err
	})

	for _, o := range outcomes {
		if o.Err != nil {
			stats.Failed++
			r.logger.Warn("entity refresh failed", "symbol", o.Item.Symbol, "error", o.Err)
			continue
		}
		stats.Refreshed++
	}
	flagged.Range(func(_, _ any) bool {
		stats.Flagged++
		return true
	})

	if r.deps.Purger != nil {
		if _, err := r.deps.Purger.Purge(ctx); err != nil {
			r.logger.Warn("retention purge failed", "error", err)
		}
	}

	stats.Duration = r.clock.Now().Sub(start)
	r.mu.Lock()
	r.totals.Runs++
	r.totals.Refreshed += int64(stats.Refreshed)
	r.totals.Failed += int64(stats.Failed)
	r.totals.Flagged += int64(stats.Flagged)
	r.mu.Unlock()

	r.logger.Info("refresh run complete",
		"run_id", stats.RunID,
		"selected", stats.Selected,
		"refreshed", stats.Refreshed,
		"failed", stats.Failed,
		"flagged", stats.Flagged,
		"duration", stats.Duration,
	)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// RefreshEntity builds, persists and returns the result for one entity.
// The entity is marked refreshed only after the result is persisted.
func (r *Refresher) RefreshEntity(ctx context.Context, e model.TrackedEntity, runID string) (EntityResult, error) {
	now := r.clock.Now()

	news := r.deps.News.Collect(ctx, e)
	social := fetch.NoData[[]model.Item]()
	if r.deps.Social != nil {
		social = r.deps.Social.Collect(ctx, e)
	}

	var q *model.Quote
	var quoteErr error
	if r.deps.Quotes != nil {
		qq, err := r.deps.Quotes.Quote(ctx, e.Symbol)
		if err == nil {
			q = &qq
		} else {
			quoteErr = err
			r.logger.Debug("quote unavailable", "symbol", e.Symbol, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return EntityResult{}, err
	}
	if failed(news.Status) && failed(social.Status) && quoteErr != nil {
		return EntityResult{}, fmt.Errorf("%s: %w", e.Symbol, errors.Join(ErrNoSources, news.Err, social.Err, quoteErr))
	}

	assessment := r.deps.Detector.Assess(social.Value, q)
	socialItems := r.adjustSocial(social.Value, assessment.Trust())

	result := EntityResult{
		Symbol:    e.Symbol,
		RunID:     runID,
		FetchedAt: now,
		StockInfo: q,
		News:      r.sourceData(news, news.Value, r.cfg.MaxArticles, now),
		Social:    r.sourceData(social, socialItems, r.cfg.MaxPosts, now),
		Anomaly:   assessment,
	}

	all := make([]model.Item, 0, len(news.Value)+len(socialItems))
	all = append(all, news.Value...)
	all = append(all, socialItems...)
	if raw, ok := r.deps.Weights.Blend(all); ok {
		result.Overall = r.overall(ctx, e.Symbol, raw, q, result.News.Sentiment, result.Social.Sentiment, now)
	}

	if err := r.deps.Sink.WriteResult(ctx, result); err != nil {
		return result, fmt.Errorf("persist %s: %w", e.Symbol, err)
	}
	r.deps.Entities.MarkRefreshed(e.Symbol, now)
	return result, nil
}

// adjustSocial scales social compounds by the anomaly trust score.
func (r *Refresher) adjustSocial(items []model.Item, trust float64) []model.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.Item, len(items))
	copy(out, items)
	for i := range out {
		c := r.deps.Detector.AdjustSentiment(out[i].Sentiment.Compound, trust)
		out[i].Sentiment.Compound = c
		out[i].Sentiment.Label = model.LabelFor(c)
	}
	return out
}

func (r *Refresher) sourceData(res fetch.Result[[]model.Item], items []model.Item, limit int, now time.Time) SourceData {
	d := SourceData{Count: len(items), Status: res.Status.String()}
	if len(items) == 0 {
		return d
	}

	scored := make([]sentiment.Scored, len(items))
	for i, it := range items {
		scored[i] = sentiment.Scored{Score: it.Sentiment, PublishedAt: it.CreatedAt}
	}
	d.Sentiment = r.deps.Aggregator.AggregateScored(scored, now)

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	d.Items = items
	return d
}

func (r *Refresher) overall(ctx context.Context, symbol string, raw float64, q *model.Quote, news, social *model.AggregatedSentiment, now time.Time) OverallSentiment {
	o := OverallSentiment{
		Available: true,
		Compound:  raw,
		Label:     model.LabelFor(raw),
	}

	if r.deps.History != nil {
		v, err := cache.Velocity(ctx, r.deps.History, symbol, now, raw)
		if err != nil {
			r.logger.Debug("sentiment history unavailable", "symbol", symbol, "error", err)
		}
		o.Velocity = v
		if err := r.deps.History.RecordSentiment(ctx, symbol, now, raw); err != nil {
			r.logger.Debug("sentiment history write failed", "symbol", symbol, "error", err)
		}
	}

	in := market.ConfirmInput{Sentiment: raw}
	if q != nil {
		in.PriceChange = q.ChangePercent
		in.VolumeChange = q.VolumeChangePercent()
		in.BidAskImbal = q.BidAskImbalance()
		in.HasBidAskData = q.Bid > 0 && q.Ask > 0
	}
	conf := market.Confirm(in, r.cfg.Confirm)
	o.Confirmation = &conf
	o.Confidence = conf.Confidence
	o.Status = conf.Status

	if q != nil {
		var newsC, socialC *float64
		if news != nil {
			newsC = &news.Compound
		}
		if social != nil {
			socialC = &social.Compound
		}
		summary := market.ValidateSources(newsC, socialC, *q, r.cfg.Validate)
		o.Validation = &summary
	}
	return o
}

func failed(s fetch.Status) bool {
	return s == fetch.StatusFailed || s == fetch.StatusRateLimited
}
