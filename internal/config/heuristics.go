package config

import (
	"sort"
	"time"

	"github.com/rickgao/tickersense/internal/anomaly"
	"github.com/rickgao/tickersense/internal/market"
	"github.com/rickgao/tickersense/internal/sentiment"
)

// HeuristicsConfig overrides the compiled heuristic tables. Zero values
// keep the compiled default.
type HeuristicsConfig struct {
	SentimentLimit float64            `yaml:"sentiment_limit"`
	Boosts         map[string]float64 `yaml:"boosts"` // Merged over the default boosts
	Weighting      WeightingConfig    `yaml:"weighting"`
	SourceWeights  SourceWeightConfig `yaml:"source_weights"`
	Confirmation   ConfirmationConfig `yaml:"confirmation"`
	Anomaly        AnomalyConfig      `yaml:"anomaly"`
	IgnoredTickers []string           `yaml:"ignored_tickers"` // Replaces the default list
}

// WeightingConfig tunes recency weighting.
type WeightingConfig struct {
	HalfLifeHours float64        `yaml:"half_life_hours"`
	MaxAgeHours   float64        `yaml:"max_age_hours"`
	Override      OverrideConfig `yaml:"override"`
}

// OverrideConfig tunes the recent-positive override.
type OverrideConfig struct {
	Enabled           *bool        `yaml:"enabled"`
	RecentHours       float64      `yaml:"recent_hours"`
	PositiveThreshold float64      `yaml:"positive_threshold"`
	NegativeThreshold float64      `yaml:"negative_threshold"`
	Tiers             []TierConfig `yaml:"tiers"`
}

// TierConfig is one damping tier.
type TierConfig struct {
	AgeHours   float64 `yaml:"age_hours"`
	Multiplier float64 `yaml:"multiplier"`
}

// SourceWeightConfig tunes per-origin credibility.
type SourceWeightConfig struct {
	Filing               float64 `yaml:"filing"`
	Wire                 float64 `yaml:"wire"`
	Finance              float64 `yaml:"finance"`
	SocialHigh           float64 `yaml:"social_high"`
	SocialLow            float64 `yaml:"social_low"`
	Default              float64 `yaml:"default"`
	SocialScoreThreshold int     `yaml:"social_score_threshold"`
}

// ConfirmationConfig tunes market confirmation.
type ConfirmationConfig struct {
	NeutralBand         float64 `yaml:"neutral_band"`
	ConfirmedConfidence float64 `yaml:"confirmed_confidence"`
	PartialConfidence   float64 `yaml:"partial_confidence"`
}

// AnomalyConfig tunes the manipulation detector.
type AnomalyConfig struct {
	VolumeRatio           float64       `yaml:"volume_ratio"`
	EngagementRatio       float64       `yaml:"engagement_ratio"`
	DivergenceSentiment   float64       `yaml:"divergence_sentiment"`
	DivergencePriceChange float64       `yaml:"divergence_price_change"`
	ClusterWindow         time.Duration `yaml:"cluster_window"`
	ClusterCount          int           `yaml:"cluster_count"`
	CredibilityRatio      float64       `yaml:"credibility_ratio"`
	KeywordRatio          float64       `yaml:"keyword_ratio"`
	MinSignals            int           `yaml:"min_signals"`
	FlagRisk              float64       `yaml:"flag_risk"`
	TrustFloor            float64       `yaml:"trust_floor"`

	PumpKeywords       []string `yaml:"pump_keywords"`
	SuspiciousPatterns []string `yaml:"suspicious_patterns"`
	BotAuthors         []string `yaml:"bot_authors"`
}

// BoostTable returns the default boosts with configured terms merged in,
// sorted by term.
func (h HeuristicsConfig) BoostTable() []sentiment.Boost {
	merged := make(map[string]float64)
	for _, b := range sentiment.DefaultBoosts() {
		merged[b.Term] = b.Weight
	}
	for term, w := range h.Boosts {
		merged[term] = w
	}

	out := make([]sentiment.Boost, 0, len(merged))
	for term, w := range merged {
		out = append(out, sentiment.Boost{Term: term, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

// Limit returns the compound clamp.
func (h HeuristicsConfig) Limit() float64 {
	if h.SentimentLimit == 0 {
		return sentiment.DefaultCompoundLimit
	}
	return h.SentimentLimit
}

// WeightConfig returns the recency weighting parameters.
func (h HeuristicsConfig) WeightConfig() sentiment.WeightConfig {
	cfg := sentiment.DefaultWeightConfig()
	w := h.Weighting
	setFloat(&cfg.HalfLifeHours, w.HalfLifeHours)
	setFloat(&cfg.MaxAgeHours, w.MaxAgeHours)
	if w.Override.Enabled != nil {
		cfg.Override.Enabled = *w.Override.Enabled
	}
	setFloat(&cfg.Override.RecentHours, w.Override.RecentHours)
	setFloat(&cfg.Override.PositiveThreshold, w.Override.PositiveThreshold)
	setFloat(&cfg.Override.NegativeThreshold, w.Override.NegativeThreshold)
	if len(w.Override.Tiers) > 0 {
		tiers := make([]sentiment.OverrideTier, len(w.Override.Tiers))
		for i, t := range w.Override.Tiers {
			tiers[i] = sentiment.OverrideTier{AgeHours: t.AgeHours, Multiplier: t.Multiplier}
		}
		// Oldest tier first so the first match is the strongest damping.
		sort.Slice(tiers, func(i, j int) bool { return tiers[i].AgeHours > tiers[j].AgeHours })
		cfg.Override.Tiers = tiers
	}
	return cfg
}

// Weights returns the per-origin credibility table.
func (h HeuristicsConfig) Weights() sentiment.SourceWeights {
	w := sentiment.DefaultSourceWeights()
	s := h.SourceWeights
	setFloat(&w.Filing, s.Filing)
	setFloat(&w.Wire, s.Wire)
	setFloat(&w.Finance, s.Finance)
	setFloat(&w.SocialHigh, s.SocialHigh)
	setFloat(&w.SocialLow, s.SocialLow)
	setFloat(&w.Default, s.Default)
	setInt(&w.SocialScoreThreshold, s.SocialScoreThreshold)
	return w
}

// Confirm returns the confirmation thresholds.
func (h HeuristicsConfig) Confirm() market.ConfirmConfig {
	c := market.DefaultConfirmConfig()
	setFloat(&c.NeutralBand, h.Confirmation.NeutralBand)
	setFloat(&c.ConfirmedConfidence, h.Confirmation.ConfirmedConfidence)
	setFloat(&c.PartialConfidence, h.Confirmation.PartialConfidence)
	return c
}

// Thresholds returns the detector thresholds.
func (h HeuristicsConfig) Thresholds() anomaly.Thresholds {
	t := anomaly.DefaultThresholds()
	a := h.Anomaly
	setFloat(&t.VolumeRatio, a.VolumeRatio)
	setFloat(&t.EngagementRatio, a.EngagementRatio)
	setFloat(&t.DivergenceSentiment, a.DivergenceSentiment)
	setFloat(&t.DivergencePriceChange, a.DivergencePriceChange)
	if a.ClusterWindow > 0 {
		t.ClusterWindow = a.ClusterWindow
	}
	setInt(&t.ClusterCount, a.ClusterCount)
	setFloat(&t.CredibilityRatio, a.CredibilityRatio)
	setFloat(&t.KeywordRatio, a.KeywordRatio)
	setInt(&t.MinSignals, a.MinSignals)
	setFloat(&t.FlagRisk, a.FlagRisk)
	setFloat(&t.TrustFloor, a.TrustFloor)
	return t
}

// Vocabulary returns the detector term lists. Empty lists keep the defaults.
func (h HeuristicsConfig) Vocabulary() anomaly.Vocabulary {
	return anomaly.Vocabulary{
		Pump:       h.Anomaly.PumpKeywords,
		Suspicious: h.Anomaly.SuspiciousPatterns,
		BotAuthors: h.Anomaly.BotAuthors,
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
