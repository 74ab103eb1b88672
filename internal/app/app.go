package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/tickersense/internal/anomaly"
	"github.com/rickgao/tickersense/internal/auth"
	"github.com/rickgao/tickersense/internal/cache"
	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/config"
	"github.com/rickgao/tickersense/internal/database"
	"github.com/rickgao/tickersense/internal/dedup"
	"github.com/rickgao/tickersense/internal/entity"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/ingest"
	"github.com/rickgao/tickersense/internal/market"
	"github.com/rickgao/tickersense/internal/metrics"
	"github.com/rickgao/tickersense/internal/quote"
	"github.com/rickgao/tickersense/internal/sentiment"
	"github.com/rickgao/tickersense/internal/source"
	"github.com/rickgao/tickersense/internal/universe"
	"github.com/rickgao/tickersense/internal/writer"
)

// Store is the shared quote cache and sentiment history.
type Store interface {
	quote.Store
	cache.History
}

// App holds the wired pipeline components.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  clock.Clock

	Pool     *pgxpool.Pool
	Redis    *cache.RedisStore // Nil when the in-process cache is used
	Store    Store
	Universe *universe.Universe
	Registry *entity.Registry

	SocialClient *fetch.Client
	NewsClient   *fetch.Client
	QuoteClient  *fetch.Client // Nil for the finance-go provider

	Ledger    *dedup.PostgresLedger
	Social    *ingest.SocialCrawler
	News      *ingest.NewsCrawler
	Refresher *ingest.Refresher
	Comments  *writer.CommentWriter
	Results   *writer.ResultWriter

	started bool
}

// Build connects to the database and cache and wires every component.
// The returned App must be closed.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Clock: clock.New()}

	if err := a.connect(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.wire(); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	a.Logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database, "tickersense-"+cfg.Instance.ID)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.Pool = pool

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if cfg.Redis.Addr != "" {
		rs, err := cache.NewRedisStore(ctx, cache.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			HistoryTTL: cfg.Redis.HistoryTTL,
		})
		if err != nil {
			return err
		}
		a.Redis = rs
		a.Store = rs
		a.Logger.Info("redis connected", "addr", cfg.Redis.Addr)
	} else {
		a.Store = cache.NewMemory(a.Clock)
		a.Logger.Info("using in-process cache")
	}

	u, err := universe.Load(cfg.Universe.Path, cfg.Universe.Symbols)
	if err != nil {
		return err
	}
	a.Universe = u
	a.Logger.Info("universe loaded", "symbols", u.Len())
	return nil
}

func (a *App) wire() error {
	cfg := a.Config
	h := cfg.Heuristics
	logger := a.Logger

	creds, err := auth.LoadCredentials(
		cfg.Sources.Social.ClientID,
		cfg.Sources.Social.ClientSecret,
		cfg.Sources.Social.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("social credentials: %w", err)
	}
	tokens := auth.NewTokenProvider(creds, cfg.Sources.Social.TokenURL, nil, logger)

	a.SocialClient = newClient("social", cfg.Sources.Social, a.Clock, logger,
		fetch.WithAuthorizer(tokens),
		fetch.WithHeader("User-Agent", creds.UserAgent),
	)
	a.NewsClient = newClient("news", cfg.Sources.News, a.Clock, logger,
		fetch.WithHeader("X-Api-Key", cfg.Sources.News.APIKey),
		fetch.WithQuotaDetector(source.NewsQuotaDetector),
	)

	var provider quote.Provider
	switch cfg.Sources.Quotes.Provider {
	case "finance":
		provider = quote.NewFinanceProvider(a.Clock)
	default:
		a.QuoteClient = newClient("quotes", cfg.Sources.Quotes.Source, a.Clock, logger)
		provider = quote.NewHTTPProvider(a.QuoteClient, a.Clock, cfg.Sources.Quotes.Path)
	}
	quotes := quote.NewCached(provider, a.Store, cfg.Redis.QuoteTTL, logger)

	scorer := sentiment.NewScorer(h.BoostTable(), h.Limit())
	agg := sentiment.NewAggregator(scorer, h.WeightConfig())
	detector := anomaly.NewDetector(h.Thresholds(), h.Vocabulary())
	extractor := ingest.NewExtractor(a.Universe, h.IgnoredTickers, ingest.WithNameIndex(a.Universe))

	a.Ledger = dedup.NewPostgresLedger(a.Pool)
	a.Comments = writer.NewCommentWriter(writer.WriterConfig{
		BatchSize:     cfg.Writers.BatchSize,
		FlushInterval: cfg.Writers.FlushInterval,
	}, a.Pool, a.Clock, logger)
	a.Results = writer.NewResultWriter(a.Pool, logger)

	a.Registry = entity.NewRegistry(entity.DefaultConfig(), a.Universe, entity.NewPostgresStore(a.Pool), a.Clock, logger)

	window := windowConfig(cfg.Window)
	a.Social = ingest.NewSocialCrawler(ingest.SocialConfig{
		Subreddits:   cfg.Social.Subreddits,
		PageSize:     cfg.Social.PageSize,
		MaxComments:  cfg.Social.MaxComments,
		CommentPause: cfg.Social.CommentPause,
		SearchLimit:  cfg.Social.SearchLimit,
		Lookback:     cfg.Social.Lookback,
		Window:       window,
	}, source.NewSocial(a.SocialClient, a.Clock, logger), a.Ledger, extractor, agg, a.Comments, a.Registry, a.Clock, logger)

	news := source.NewNews(a.NewsClient, a.Clock, logger,
		source.WithLanguage(cfg.Sources.News.Language),
		source.WithPerQuery(cfg.Sources.News.PerQuery),
		source.WithLookback(cfg.News.Lookback),
	)
	a.News = ingest.NewNewsCrawler(ingest.NewsConfig{
		Lookback:      cfg.News.Lookback,
		RetentionDays: cfg.News.Retention(),
	}, news, a.Ledger, a.Ledger, scorer, a.Clock, logger)

	a.Refresher = ingest.NewRefresher(ingest.RefreshConfig{
		Interval: cfg.Refresh.Interval(),
		Limit:    cfg.Refresh.Limit,
		Batch: ingest.BatchConfig{
			Size:        cfg.Refresh.BatchSize,
			Pause:       cfg.Refresh.BatchPause,
			Concurrency: cfg.Refresh.Concurrency,
		},
		MaxArticles: cfg.Refresh.MaxArticles,
		MaxPosts:    cfg.Refresh.MaxPosts,
		Confirm:     h.Confirm(),
		Validate:    market.DefaultValidateConfig(),
	}, ingest.RefreshDeps{
		Entities:   a.Registry,
		News:       a.News,
		Social:     a.Social,
		Quotes:     quotes,
		History:    a.Store,
		Aggregator: agg,
		Weights:    h.Weights(),
		Detector:   detector,
		Sink:       a.Results,
		Purger:     a.News,
	}, a.Clock, logger)

	return nil
}

// Start loads the entity registry and starts the comment writer.
func (a *App) Start(ctx context.Context) error {
	if err := a.Registry.Start(ctx); err != nil {
		return fmt.Errorf("start entity registry: %w", err)
	}
	if err := a.Comments.Start(ctx); err != nil {
		return fmt.Errorf("start comment writer: %w", err)
	}
	a.started = true
	return nil
}

// Crawl runs one bulk social cycle with its own quota state.
func (a *App) Crawl(ctx context.Context) (ingest.SocialStats, error) {
	return a.Social.Run(fetch.StartCycle(ctx))
}

// Close stops components and releases connections. Safe on a partially
// built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.started {
		if err := a.Comments.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := a.Registry.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Universe != nil {
		if err := a.Universe.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	return errors.Join(errs...)
}

// MetricsSources exposes the components read by the metrics collector.
func (a *App) MetricsSources() metrics.Sources {
	fetchers := map[string]metrics.FetchStatser{
		"social": a.SocialClient,
		"news":   a.NewsClient,
	}
	if a.QuoteClient != nil {
		fetchers["quotes"] = a.QuoteClient
	}
	return metrics.Sources{
		Fetchers: fetchers,
		Writers: map[string]metrics.WriterStatser{
			"comments": a.Comments,
			"results":  a.Results,
		},
		Social:   a.Social,
		News:     a.News,
		Refresh:  a.Refresher,
		Entities: a.Registry,
	}
}

// Checks returns dependency checks for the health endpoint.
func (a *App) Checks() map[string]metrics.CheckFunc {
	checks := map[string]metrics.CheckFunc{
		"postgres": a.Pool.Ping,
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis.Ping
	}
	return checks
}

func newClient(name string, sc config.SourceConfig, clk clock.Clock, logger *slog.Logger, extra ...fetch.ClientOption) *fetch.Client {
	opts := []fetch.ClientOption{
		fetch.WithRateLimit(sc.RateLimit, sc.RateWindow),
		fetch.WithConcurrency(sc.Concurrency),
		fetch.WithTimeout(sc.Timeout),
		fetch.WithRetries(sc.MaxRetries, sc.RetryBase, sc.RetryMax),
		fetch.WithClock(clk),
		fetch.WithLogger(logger),
	}
	return fetch.NewClient(name, sc.BaseURL, append(opts, extra...)...)
}

func windowConfig(w config.WindowConfig) dedup.WindowConfig {
	return dedup.WindowConfig{
		Overlap:            w.Overlap,
		Initial:            w.Initial,
		BackfillAfter:      w.BackfillAfter,
		MaxLookback:        w.MaxLookback,
		MaxItems:           w.MaxItems,
		SkipStreak:         w.SkipStreak,
		BackfillMaxItems:   w.BackfillMaxItems,
		BackfillSkipStreak: w.BackfillSkipStreak,
	}
}
