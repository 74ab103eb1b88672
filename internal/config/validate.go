package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Redis.DB < 0 {
		return errors.New("redis.db must be >= 0")
	}

	if err := c.Sources.Social.validate("sources.social"); err != nil {
		return err
	}
	if c.Sources.Social.ClientID == "" {
		return errors.New("sources.social.client_id is required")
	}
	if c.Sources.Social.ClientSecret == "" {
		return errors.New("sources.social.client_secret is required")
	}
	if err := c.Sources.News.validate("sources.news"); err != nil {
		return err
	}
	if c.Sources.News.APIKey == "" {
		return errors.New("sources.news.api_key is required")
	}
	switch c.Sources.Quotes.Provider {
	case "http":
		if err := c.Sources.Quotes.Source.validate("sources.quotes"); err != nil {
			return err
		}
	case "finance":
	default:
		return fmt.Errorf("sources.quotes.provider must be http or finance, got %q", c.Sources.Quotes.Provider)
	}

	if len(c.Social.Subreddits) == 0 {
		return errors.New("social.subreddits must not be empty")
	}
	for i, s := range c.Social.Subreddits {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("social.subreddits[%d] is empty", i)
		}
	}
	if c.Social.PageSize < 1 || c.Social.PageSize > 100 {
		return fmt.Errorf("social.page_size must be between 1 and 100, got %d", c.Social.PageSize)
	}
	if c.Social.Interval <= 0 {
		return errors.New("social.interval must be positive")
	}

	if c.News.Retention() < 0 {
		return errors.New("news.retention_days must be >= 0")
	}

	if c.Refresh.IntervalHours <= 0 {
		return errors.New("refresh.interval_hours must be positive")
	}
	if c.Refresh.BatchSize < 1 {
		return errors.New("refresh.batch_size must be >= 1")
	}
	if c.Refresh.Concurrency < 1 {
		return errors.New("refresh.concurrency must be >= 1")
	}
	if c.Refresh.Limit < 0 {
		return errors.New("refresh.limit must be >= 0")
	}

	if c.Window.MaxLookback < c.Window.Initial {
		return errors.New("window.max_lookback cannot be shorter than window.initial")
	}
	if c.Window.MaxItems < 1 || c.Window.BackfillMaxItems < 1 {
		return errors.New("window.max_items and window.backfill_max_items must be >= 1")
	}

	if c.Scheduler.Tick <= 0 {
		return errors.New("scheduler.tick must be positive")
	}

	if c.Writers.BatchSize < 1 {
		return errors.New("writers.batch_size must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return c.Heuristics.validate()
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (s *SourceConfig) validate(prefix string) error {
	if s.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", prefix)
	}
	if s.RateLimit < 1 {
		return fmt.Errorf("%s.rate_limit must be positive", prefix)
	}
	if s.RateWindow <= 0 {
		return fmt.Errorf("%s.rate_window must be positive", prefix)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("%s.concurrency must be >= 1", prefix)
	}
	if s.MaxRetries < 1 {
		return fmt.Errorf("%s.max_retries must be >= 1", prefix)
	}
	if s.RetryMax < s.RetryBase {
		return fmt.Errorf("%s.retry_max cannot be shorter than retry_base", prefix)
	}
	return nil
}

// validate checks the heuristic tables for completeness and range.
func (h *HeuristicsConfig) validate() error {
	limit := h.Limit()
	if limit <= 0 {
		return errors.New("heuristics.sentiment_limit must be positive")
	}
	for term, w := range h.Boosts {
		if strings.TrimSpace(term) == "" {
			return errors.New("heuristics.boosts contains an empty term")
		}
		if w == 0 || w > limit || w < -limit {
			return fmt.Errorf("heuristics.boosts[%q] must be non-zero and within ±%g, got %g", term, limit, w)
		}
	}

	wc := h.WeightConfig()
	if wc.HalfLifeHours <= 0 {
		return errors.New("heuristics.weighting.half_life_hours must be positive")
	}
	if wc.MaxAgeHours <= 0 {
		return errors.New("heuristics.weighting.max_age_hours must be positive")
	}
	for i, t := range wc.Override.Tiers {
		if t.AgeHours <= 0 {
			return fmt.Errorf("heuristics.weighting.override.tiers[%d].age_hours must be positive", i)
		}
		if t.Multiplier < 0 || t.Multiplier > 1 {
			return fmt.Errorf("heuristics.weighting.override.tiers[%d].multiplier must be between 0 and 1", i)
		}
	}

	sw := h.Weights()
	for name, v := range map[string]float64{
		"filing": sw.Filing, "wire": sw.Wire, "finance": sw.Finance,
		"social_high": sw.SocialHigh, "social_low": sw.SocialLow, "default": sw.Default,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("heuristics.source_weights.%s must be between 0 and 1, got %g", name, v)
		}
	}

	cc := h.Confirm()
	if cc.NeutralBand < 0 || cc.NeutralBand >= 1 {
		return fmt.Errorf("heuristics.confirmation.neutral_band must be in [0, 1), got %g", cc.NeutralBand)
	}
	if cc.PartialConfidence > cc.ConfirmedConfidence {
		return errors.New("heuristics.confirmation.partial_confidence cannot exceed confirmed_confidence")
	}

	th := h.Thresholds()
	for name, v := range map[string]float64{
		"engagement_ratio":  th.EngagementRatio,
		"credibility_ratio": th.CredibilityRatio,
		"keyword_ratio":     th.KeywordRatio,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("heuristics.anomaly.%s must be in (0, 1], got %g", name, v)
		}
	}
	if th.VolumeRatio <= 1 {
		return fmt.Errorf("heuristics.anomaly.volume_ratio must exceed 1, got %g", th.VolumeRatio)
	}
	if th.ClusterCount < 1 {
		return errors.New("heuristics.anomaly.cluster_count must be >= 1")
	}
	if th.MinSignals < 1 || th.MinSignals > 6 {
		return fmt.Errorf("heuristics.anomaly.min_signals must be between 1 and 6, got %d", th.MinSignals)
	}
	if th.FlagRisk <= 0 || th.FlagRisk > 100 {
		return fmt.Errorf("heuristics.anomaly.flag_risk must be in (0, 100], got %g", th.FlagRisk)
	}
	if th.TrustFloor < 0 || th.TrustFloor > 100 {
		return fmt.Errorf("heuristics.anomaly.trust_floor must be in [0, 100], got %g", th.TrustFloor)
	}
	for name, list := range map[string][]string{
		"pump_keywords":       h.Anomaly.PumpKeywords,
		"suspicious_patterns": h.Anomaly.SuspiciousPatterns,
		"bot_authors":         h.Anomaly.BotAuthors,
		"ignored_tickers":     h.IgnoredTickers,
	} {
		for i, v := range list {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("heuristics.%s[%d] is empty", name, i)
			}
		}
	}
	return nil
}
