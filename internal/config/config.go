package config

import "time"

// Config is the root configuration for a collector instance.
type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DBConfig         `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Sources    SourcesConfig    `yaml:"sources"`
	Universe   UniverseConfig   `yaml:"universe"`
	Social     SocialConfig     `yaml:"social"`
	News       NewsConfig       `yaml:"news"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Window     WindowConfig     `yaml:"window"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Writers    WritersConfig    `yaml:"writers"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Heuristics HeuristicsConfig `yaml:"heuristics"`
}

// InstanceConfig identifies this collector.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds the cache connection. An empty Addr selects the
// in-process cache.
type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	QuoteTTL   time.Duration `yaml:"quote_ttl"`
	HistoryTTL time.Duration `yaml:"history_ttl"`
}

// SourcesConfig holds the external collaborators.
type SourcesConfig struct {
	Social SourceConfig `yaml:"social"`
	News   SourceConfig `yaml:"news"`
	Quotes QuoteConfig  `yaml:"quotes"`
}

// SourceConfig holds one rate-limited source.
type SourceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	RateLimit   int           `yaml:"rate_limit"` // Calls per RateWindow
	RateWindow  time.Duration `yaml:"rate_window"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryBase   time.Duration `yaml:"retry_base"`
	RetryMax    time.Duration `yaml:"retry_max"`

	// Social only.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	UserAgent    string `yaml:"user_agent"`
	TokenURL     string `yaml:"token_url"`

	// News only.
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	PerQuery int    `yaml:"per_query"`
}

// QuoteConfig selects and tunes the quote provider.
type QuoteConfig struct {
	Provider string       `yaml:"provider"` // http or finance
	Path     string       `yaml:"path"`
	Source   SourceConfig `yaml:",inline"`
}

// UniverseConfig locates the valid-symbol list.
type UniverseConfig struct {
	Path    string   `yaml:"path"`
	Symbols []string `yaml:"symbols"` // Added on top of the file
}

// SocialConfig tunes the bulk social crawler.
type SocialConfig struct {
	Subreddits   []string      `yaml:"subreddits"`
	Interval     time.Duration `yaml:"interval"`
	PageSize     int           `yaml:"page_size"`
	MaxComments  int           `yaml:"max_comments"`
	CommentPause time.Duration `yaml:"comment_pause"`
	SearchLimit  int           `yaml:"search_limit"`
	Lookback     time.Duration `yaml:"lookback"`
	Timeout      time.Duration `yaml:"timeout"`
}

// NewsConfig tunes news collection.
type NewsConfig struct {
	Lookback      time.Duration `yaml:"lookback"`
	RetentionDays *int          `yaml:"retention_days"` // 0 disables purging
}

// Retention returns the retention period in days.
func (n NewsConfig) Retention() int {
	if n.RetentionDays == nil {
		return DefaultRetentionDays
	}
	return *n.RetentionDays
}

// RefreshConfig tunes the per-entity refresh.
type RefreshConfig struct {
	IntervalHours float64       `yaml:"interval_hours"` // May be fractional, e.g. 0.5
	Limit         int           `yaml:"limit"`
	BatchSize     int           `yaml:"batch_size"`
	BatchPause    time.Duration `yaml:"batch_pause"`
	Concurrency   int           `yaml:"concurrency"`
	MaxArticles   int           `yaml:"max_articles"`
	MaxPosts      int           `yaml:"max_posts"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Interval converts IntervalHours to a duration.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalHours * float64(time.Hour))
}

// WindowConfig bounds incremental fetch windows.
type WindowConfig struct {
	Overlap            time.Duration `yaml:"overlap"`
	Initial            time.Duration `yaml:"initial"`
	BackfillAfter      time.Duration `yaml:"backfill_after"`
	MaxLookback        time.Duration `yaml:"max_lookback"`
	MaxItems           int           `yaml:"max_items"`
	SkipStreak         int           `yaml:"skip_streak"`
	BackfillMaxItems   int           `yaml:"backfill_max_items"`
	BackfillSkipStreak int           `yaml:"backfill_skip_streak"`
}

// SchedulerConfig holds the tick period.
type SchedulerConfig struct {
	Tick time.Duration `yaml:"tick"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
