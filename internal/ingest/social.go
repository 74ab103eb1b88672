package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/dedup"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/model"
	"github.com/rickgao/tickersense/internal/sentiment"
	"github.com/rickgao/tickersense/internal/source"
)

// SocialSource is the social post collaborator.
type SocialSource interface {
	NewPosts(ctx context.Context, subreddit, after string, limit int) (source.Page, error)
	Search(ctx context.Context, query string, since time.Time, limit int) ([]model.RawItem, error)
	Comments(ctx context.Context, postID string, limit int) ([]model.Comment, error)
}

// CommentSink persists scored comments.
type CommentSink interface {
	WriteComments(ctx context.Context, comments []model.Comment) error
}

// Discoverer registers symbols seen in the wild.
type Discoverer interface {
	Discover(symbols ...string) int
}

// SocialConfig configures the social crawler.
type SocialConfig struct {
	Subreddits   []string
	PageSize     int
	MaxComments  int
	CommentPause time.Duration
	SearchLimit  int
	Lookback     time.Duration // Per-entity search look-back
	Window       dedup.WindowConfig
}

// DefaultSocialConfig returns the standard crawl settings.
func DefaultSocialConfig() SocialConfig {
	return SocialConfig{
		Subreddits:   []string{"wallstreetbets", "stocks", "StockMarket", "Daytrading", "pennystocks", "investing", "options"},
		PageSize:     source.MaxPageSize,
		MaxComments:  100,
		CommentPause: 500 * time.Millisecond,
		SearchLimit:  100,
		Lookback:     24 * time.Hour,
		Window:       dedup.DefaultWindowConfig(),
	}
}

// SocialStats counts what one crawl cycle did.
type SocialStats struct {
	Window         dedup.Window
	PostsFetched   int
	PostsProcessed int // Posts naming at least one valid ticker
	SymbolsFound   int
	Saved          int
	Duplicates     int
	Comments       int
	FailedSources  int
	RateLimited    bool
}

// SocialTotals are cumulative crawler counters.
type SocialTotals struct {
	Cycles     int64
	Fetched    int64
	Saved      int64
	Duplicates int64
	Comments   int64
	Backfills  int64
}

// SocialCrawler ingests social posts into the ledger.
type SocialCrawler struct {
	cfg       SocialConfig
	src       SocialSource
	ledger    dedup.Ledger
	extractor *Extractor
	agg       *sentiment.Aggregator
	comments  CommentSink
	discover  Discoverer
	clock     clock.Clock
	logger    *slog.Logger

	mu     sync.Mutex
	totals SocialTotals
}

// NewSocialCrawler creates a crawler. comments and discover may be nil.
func NewSocialCrawler(
	cfg SocialConfig,
	src SocialSource,
	ledger dedup.Ledger,
	extractor *Extractor,
	agg *sentiment.Aggregator,
	comments CommentSink,
	discover Discoverer,
	clk clock.Clock,
	logger *slog.Logger,
) *SocialCrawler {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = source.MaxPageSize
	}
	return &SocialCrawler{
		cfg:       cfg,
		src:       src,
		ledger:    ledger,
		extractor: extractor,
		agg:       agg,
		comments:  comments,
		discover:  discover,
		clock:     clk,
		logger:    logger.With("component", "social_crawler"),
	}
}

// Totals returns cumulative counters.
func (c *SocialCrawler) Totals() SocialTotals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Run performs one crawl cycle across every configured subreddit. A
// rate-limited source ends the cycle early without error; other per-subreddit
// failures are logged and skipped.
func (c *SocialCrawler) Run(ctx context.Context) (SocialStats, error) {
	start := c.clock.Now()
	win, err := dedup.NextWindow(ctx, c.ledger, model.SourceReddit, start, c.cfg.Window)
	if err != nil {
		return SocialStats{}, err
	}

	stats := SocialStats{Window: win}
	symbols := make(map[string]bool)

	for _, sub := range c.cfg.Subreddits {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := c.crawlSubreddit(ctx, sub, win, &stats, symbols)
		switch {
		case err == nil:
		case fetch.IsRateLimited(err):
			stats.RateLimited = true
			c.logger.Warn("social source rate limited, ending cycle", "subreddit", sub)
		case ctx.Err() != nil:
			return stats, ctx.Err()
		default:
			stats.FailedSources++
			c.logger.Warn("subreddit crawl failed", "subreddit", sub, "error", err)
		}
		if stats.RateLimited {
			break
		}
	}
	stats.SymbolsFound = len(symbols)

	c.mu.Lock()
	c.totals.Cycles++
	c.totals.Fetched += int64(stats.PostsFetched)
	c.totals.Saved += int64(stats.Saved)
	c.totals.Duplicates += int64(stats.Duplicates)
	c.totals.Comments += int64(stats.Comments)
	if win.Backfill {
		c.totals.Backfills++
	}
	c.mu.Unlock()

	c.logger.Info("social cycle complete",
		"backfill", win.Backfill,
		"since", win.Since,
		"fetched", stats.PostsFetched,
		"processed", stats.PostsProcessed,
		"symbols", stats.SymbolsFound,
		"saved", stats.Saved,
		"duplicates", stats.Duplicates,
		"duration", c.clock.Now().Sub(start),
	)
	return stats, nil
}

// crawlSubreddit pages newest-first until the window bound, the skip streak
// or the item cap is reached.
func (c *SocialCrawler) crawlSubreddit(ctx context.Context, sub string, win dedup.Window, stats *SocialStats, symbols map[string]bool) error {
	var after string
	var seen, streak int

	for {
		page, err := c.src.NewPosts(ctx, sub, after, c.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("list %s: %w", sub, err)
		}

		for _, post := range page.Posts {
			if !win.Covers(post.CreatedAt) {
				streak++
				if win.SkipStreak > 0 && streak >= win.SkipStreak {
					return nil
				}
				continue
			}
			streak = 0
			seen++
			stats.PostsFetched++

			if err := c.processPost(ctx, post, stats, symbols); err != nil {
				return err
			}
			if win.MaxItems > 0 && seen >= win.MaxItems {
				return nil
			}
		}

		if page.After == "" || len(page.Posts) == 0 {
			return nil
		}
		after = page.After
	}
}

func (c *SocialCrawler) processPost(ctx context.Context, post model.RawItem, stats *SocialStats, symbols map[string]bool) error {
	syms := c.extractor.Extract(ctx, post.Text())
	if len(syms) == 0 {
		return nil
	}
	stats.PostsProcessed++
	for _, s := range syms {
		symbols[s] = true
	}
	post.Symbols = syms

	fp := dedup.ItemFingerprint(post)
	isNew, err := c.ledger.IsNew(ctx, fp)
	if err != nil {
		return fmt.Errorf("ledger lookup: %w", err)
	}
	if !isNew {
		stats.Duplicates++
		return nil
	}

	comments, err := c.fetchComments(ctx, post)
	if err != nil {
		if fetch.IsRateLimited(err) || ctx.Err() != nil {
			return err
		}
		c.logger.Debug("comments unavailable", "post", post.OriginID, "error", err)
	}

	item := model.Item{
		RawItem:     post,
		Fingerprint: fp,
		Sentiment:   c.combined(post, comments),
	}
	inserted, err := c.ledger.Commit(ctx, item)
	if err != nil {
		return fmt.Errorf("commit %s: %w", post.OriginID, err)
	}
	if !inserted {
		stats.Duplicates++
		return nil
	}
	stats.Saved++

	if c.discover != nil {
		c.discover.Discover(syms...)
	}
	stats.Comments += c.saveComments(ctx, post, comments, syms)
	return nil
}

// combined scores a post together with its replies.
func (c *SocialCrawler) combined(post model.RawItem, comments []model.Comment) model.SentimentScore {
	replies := make([]sentiment.Reply, 0, len(comments))
	for _, cm := range comments {
		replies = append(replies, sentiment.Reply{Text: cm.Body, Score: cm.Score})
	}
	return c.agg.Combined(post.Text(), replies)
}

// saveComments scores and hands comments to the writer, returning how many
// were accepted. Comments without their own symbols inherit the post's.
func (c *SocialCrawler) saveComments(ctx context.Context, post model.RawItem, comments []model.Comment, syms []string) int {
	if c.comments == nil || len(comments) == 0 {
		return 0
	}
	scorer := c.agg.Scorer()
	for i := range comments {
		comments[i].Sentiment = scorer.Score(comments[i].Body)
		comments[i].Symbols = c.extractor.Extract(ctx, comments[i].Body)
		if len(comments[i].Symbols) == 0 {
			comments[i].Symbols = syms
		}
	}
	if err := c.comments.WriteComments(ctx, comments); err != nil {
		c.logger.Warn("comment write failed", "post", post.OriginID, "error", err)
		return 0
	}
	return len(comments)
}

// fetchComments pauses before each call to smooth load on the source.
func (c *SocialCrawler) fetchComments(ctx context.Context, post model.RawItem) ([]model.Comment, error) {
	if c.cfg.MaxComments <= 0 || post.Comments == 0 {
		return nil, nil
	}
	if c.cfg.CommentPause > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(c.cfg.CommentPause):
		}
	}
	return c.src.Comments(ctx, post.OriginID, c.cfg.MaxComments)
}

// Collect searches the social source for posts about one entity and returns
// every matching post newest-first. New posts are scored with their comments
// and committed; posts the ledger already holds keep their stored score so
// aggregation sees the same sentiment the crawl recorded.
func (c *SocialCrawler) Collect(ctx context.Context, e model.TrackedEntity) fetch.Result[[]model.Item] {
	since := c.clock.Now().Add(-c.cfg.Lookback)
	raw, err := c.src.Search(ctx, e.Symbol, since, c.cfg.SearchLimit)
	if err != nil {
		return fetch.Failed[[]model.Item](err)
	}

	items := make([]model.Item, 0, len(raw))
	for _, r := range raw {
		syms := c.extractor.Extract(ctx, r.Text())
		if !containsSymbol(syms, e.Symbol) {
			continue
		}
		r.Symbols = syms
		item, err := c.collectItem(ctx, r)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fetch.Failed[[]model.Item](err)
			}
			c.logger.Warn("commit failed", "symbol", e.Symbol, "post", r.OriginID, "error", err)
		}
		items = append(items, item)
	}

	sortNewest(items)
	return fetch.From(items, len(items) == 0, nil)
}

// collectItem returns the scored item for a searched post, committing it
// when the ledger has not seen it. The returned item is usable even when
// err is non-nil.
func (c *SocialCrawler) collectItem(ctx context.Context, post model.RawItem) (model.Item, error) {
	item := model.Item{RawItem: post, Fingerprint: dedup.ItemFingerprint(post)}

	stored, ok, err := c.ledger.Sentiment(ctx, item.Fingerprint)
	if err != nil {
		item.Sentiment = c.agg.Scorer().Score(post.Text())
		return item, err
	}
	if ok {
		item.Sentiment = stored
		return item, nil
	}

	comments, err := c.fetchComments(ctx, post)
	if err != nil {
		if ctx.Err() != nil {
			item.Sentiment = c.agg.Scorer().Score(post.Text())
			return item, ctx.Err()
		}
		c.logger.Debug("comments unavailable", "post", post.OriginID, "error", err)
	}
	item.Sentiment = c.combined(post, comments)

	inserted, err := c.ledger.Commit(ctx, item)
	if err != nil {
		return item, err
	}
	if inserted {
		c.saveComments(ctx, post, comments, post.Symbols)
	}
	return item, nil
}

func containsSymbol(symbols []string, want string) bool {
	for _, s := range symbols {
		if s == want {
			return true
		}
	}
	return false
}

func sortNewest(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
