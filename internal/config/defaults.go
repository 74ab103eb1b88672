package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID      = "collector"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultQuoteTTL        = time.Minute
	DefaultHistoryTTL      = 7 * 24 * time.Hour
	DefaultSocialURL       = "https://oauth.reddit.com"
	DefaultSocialTokenURL  = "https://www.reddit.com/api/v1/access_token"
	DefaultSocialAgent     = "tickersense/1.0"
	DefaultSocialRateLimit = 60
	DefaultNewsURL         = "https://newsapi.org/v2"
	DefaultNewsRateLimit   = 100
	DefaultNewsLanguage    = "en"
	DefaultNewsPerQuery    = 20
	DefaultQuoteProvider   = "http"
	DefaultQuoteURL        = "https://query1.finance.yahoo.com"
	DefaultQuotePath       = "/v7/finance/quote"
	DefaultQuoteRateLimit  = 2000
	DefaultRateWindow      = time.Minute
	DefaultConcurrency     = 50
	DefaultSourceTimeout   = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryBase       = 500 * time.Millisecond
	DefaultRetryMax        = 10 * time.Second
	DefaultSocialInterval  = 45 * time.Second
	DefaultPageSize        = 100
	DefaultMaxComments     = 100
	DefaultCommentPause    = 500 * time.Millisecond
	DefaultSearchLimit     = 100
	DefaultSocialLookback  = 24 * time.Hour
	DefaultSocialTimeout   = 10 * time.Minute
	DefaultNewsLookback    = 7 * 24 * time.Hour
	DefaultRetentionDays   = 30
	DefaultRefreshHours    = 0.5
	DefaultRefreshBatch    = 50
	DefaultRefreshPause    = 100 * time.Millisecond
	DefaultRefreshWorkers  = 10
	DefaultMaxArticles     = 50
	DefaultMaxPosts        = 20
	DefaultRefreshTimeout  = 30 * time.Minute
	DefaultOverlap         = 5 * time.Minute
	DefaultInitialWindow   = 2 * time.Hour
	DefaultBackfillAfter   = 2 * time.Hour
	DefaultMaxLookback     = 7 * 24 * time.Hour
	DefaultMaxItems        = 500
	DefaultSkipStreak      = 20
	DefaultBackfillItems   = 2000
	DefaultBackfillStreak  = 100
	DefaultTick            = 10 * time.Second
	DefaultBatchSize       = 500
	DefaultFlushInterval   = time.Second
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
)

// DefaultSubreddits are crawled when none are configured.
var DefaultSubreddits = []string{
	"wallstreetbets", "stocks", "StockMarket", "Daytrading", "pennystocks", "investing", "options",
}

func (c *Config) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	applyDBDefaults(&c.Database)

	if c.Redis.QuoteTTL == 0 {
		c.Redis.QuoteTTL = DefaultQuoteTTL
	}
	if c.Redis.HistoryTTL == 0 {
		c.Redis.HistoryTTL = DefaultHistoryTTL
	}

	// Sources
	applySourceDefaults(&c.Sources.Social, DefaultSocialURL, DefaultSocialRateLimit)
	if c.Sources.Social.TokenURL == "" {
		c.Sources.Social.TokenURL = DefaultSocialTokenURL
	}
	if c.Sources.Social.UserAgent == "" {
		c.Sources.Social.UserAgent = DefaultSocialAgent
	}
	applySourceDefaults(&c.Sources.News, DefaultNewsURL, DefaultNewsRateLimit)
	if c.Sources.News.Language == "" {
		c.Sources.News.Language = DefaultNewsLanguage
	}
	if c.Sources.News.PerQuery == 0 {
		c.Sources.News.PerQuery = DefaultNewsPerQuery
	}
	if c.Sources.Quotes.Provider == "" {
		c.Sources.Quotes.Provider = DefaultQuoteProvider
	}
	if c.Sources.Quotes.Path == "" {
		c.Sources.Quotes.Path = DefaultQuotePath
	}
	applySourceDefaults(&c.Sources.Quotes.Source, DefaultQuoteURL, DefaultQuoteRateLimit)

	// Social crawler
	if len(c.Social.Subreddits) == 0 {
		c.Social.Subreddits = append([]string(nil), DefaultSubreddits...)
	}
	if c.Social.Interval == 0 {
		c.Social.Interval = DefaultSocialInterval
	}
	if c.Social.PageSize == 0 {
		c.Social.PageSize = DefaultPageSize
	}
	if c.Social.MaxComments == 0 {
		c.Social.MaxComments = DefaultMaxComments
	}
	if c.Social.CommentPause == 0 {
		c.Social.CommentPause = DefaultCommentPause
	}
	if c.Social.SearchLimit == 0 {
		c.Social.SearchLimit = DefaultSearchLimit
	}
	if c.Social.Lookback == 0 {
		c.Social.Lookback = DefaultSocialLookback
	}
	if c.Social.Timeout == 0 {
		c.Social.Timeout = DefaultSocialTimeout
	}

	// News
	if c.News.Lookback == 0 {
		c.News.Lookback = DefaultNewsLookback
	}

	// Refresh
	if c.Refresh.IntervalHours == 0 {
		c.Refresh.IntervalHours = DefaultRefreshHours
	}
	if c.Refresh.BatchSize == 0 {
		c.Refresh.BatchSize = DefaultRefreshBatch
	}
	if c.Refresh.BatchPause == 0 {
		c.Refresh.BatchPause = DefaultRefreshPause
	}
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = DefaultRefreshWorkers
	}
	if c.Refresh.MaxArticles == 0 {
		c.Refresh.MaxArticles = DefaultMaxArticles
	}
	if c.Refresh.MaxPosts == 0 {
		c.Refresh.MaxPosts = DefaultMaxPosts
	}
	if c.Refresh.Timeout == 0 {
		c.Refresh.Timeout = DefaultRefreshTimeout
	}

	// Window
	if c.Window.Overlap == 0 {
		c.Window.Overlap = DefaultOverlap
	}
	if c.Window.Initial == 0 {
		c.Window.Initial = DefaultInitialWindow
	}
	if c.Window.BackfillAfter == 0 {
		c.Window.BackfillAfter = DefaultBackfillAfter
	}
	if c.Window.MaxLookback == 0 {
		c.Window.MaxLookback = DefaultMaxLookback
	}
	if c.Window.MaxItems == 0 {
		c.Window.MaxItems = DefaultMaxItems
	}
	if c.Window.SkipStreak == 0 {
		c.Window.SkipStreak = DefaultSkipStreak
	}
	if c.Window.BackfillMaxItems == 0 {
		c.Window.BackfillMaxItems = DefaultBackfillItems
	}
	if c.Window.BackfillSkipStreak == 0 {
		c.Window.BackfillSkipStreak = DefaultBackfillStreak
	}

	if c.Scheduler.Tick == 0 {
		c.Scheduler.Tick = DefaultTick
	}

	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

func applySourceDefaults(s *SourceConfig, baseURL string, rateLimit int) {
	if s.BaseURL == "" {
		s.BaseURL = baseURL
	}
	if s.RateLimit == 0 {
		s.RateLimit = rateLimit
	}
	if s.RateWindow == 0 {
		s.RateWindow = DefaultRateWindow
	}
	if s.Concurrency == 0 {
		s.Concurrency = DefaultConcurrency
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultSourceTimeout
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	if s.RetryBase == 0 {
		s.RetryBase = DefaultRetryBase
	}
	if s.RetryMax == 0 {
		s.RetryMax = DefaultRetryMax
	}
}
