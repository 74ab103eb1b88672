package sentiment

import (
	"math"
	"sort"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

// Dated is a text with its publish time. A zero PublishedAt counts as age 0.
type Dated struct {
	Text        string
	PublishedAt time.Time
}

// Scored is an already-scored item with its publish time.
type Scored struct {
	Score       model.SentimentScore
	PublishedAt time.Time
}

// OverrideTier damps negative items at least AgeHours old by Multiplier.
type OverrideTier struct {
	AgeHours   float64
	Multiplier float64
}

// Override configures the recent-positive override: when any item younger
// than RecentHours scores above PositiveThreshold, older items below
// NegativeThreshold are damped by the first matching tier.
type Override struct {
	Enabled           bool
	RecentHours       float64
	PositiveThreshold float64
	NegativeThreshold float64
	Tiers             []OverrideTier
}

// WeightConfig holds recency-weighting parameters.
type WeightConfig struct {
	HalfLifeHours float64
	MaxAgeHours   float64
	Override      Override
}

// DefaultWeightConfig returns a 24h half-life, 7 day cutoff and the
// 24h/48h/72h override.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		HalfLifeHours: 24,
		MaxAgeHours:   168,
		Override: Override{
			Enabled:           true,
			RecentHours:       24,
			PositiveThreshold: 0.3,
			NegativeThreshold: -0.1,
			Tiers: []OverrideTier{
				{AgeHours: 72, Multiplier: 0.1},
				{AgeHours: 48, Multiplier: 0.3},
			},
		},
	}
}

// Weight returns 2^(-age/half-life).
func (c WeightConfig) Weight(ageHours float64) float64 {
	if c.HalfLifeHours <= 0 {
		return 1
	}
	return math.Pow(2, -ageHours/c.HalfLifeHours)
}

// damp returns the override multiplier for a negative item of the given age.
func (o Override) damp(ageHours, compound float64) float64 {
	if compound >= o.NegativeThreshold {
		return 1
	}
	tiers := append([]OverrideTier(nil), o.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].AgeHours > tiers[j].AgeHours })
	for _, t := range tiers {
		if ageHours >= t.AgeHours {
			return t.Multiplier
		}
	}
	return 1
}

// Aggregator combines scores into per-entity aggregates.
type Aggregator struct {
	scorer *Scorer
	cfg    WeightConfig
}

// NewAggregator creates an aggregator. A nil scorer uses the default scorer.
func NewAggregator(scorer *Scorer, cfg WeightConfig) *Aggregator {
	if scorer == nil {
		scorer = NewScorer(nil, 0)
	}
	return &Aggregator{scorer: scorer, cfg: cfg}
}

// Scorer returns the underlying single-text scorer.
func (a *Aggregator) Scorer() *Scorer { return a.scorer }

// Config returns the weighting parameters.
func (a *Aggregator) Config() WeightConfig { return a.cfg }

// Aggregate scores texts and returns their recency-weighted aggregate.
// Empty texts are skipped.
func (a *Aggregator) Aggregate(items []Dated, now time.Time) *model.AggregatedSentiment {
	scored := make([]Scored, 0, len(items))
	for _, it := range items {
		if it.Text == "" {
			continue
		}
		scored = append(scored, Scored{Score: a.scorer.Score(it.Text), PublishedAt: it.PublishedAt})
	}
	return a.AggregateScored(scored, now)
}

// AggregateScored returns the recency-weighted aggregate of already-scored
// items, or nil when nothing survives the max-age cutoff.
func (a *Aggregator) AggregateScored(items []Scored, now time.Time) *model.AggregatedSentiment {
	if len(items) == 0 {
		return nil
	}

	ages := make([]float64, len(items))
	for i, it := range items {
		ages[i] = ageHours(now, it.PublishedAt)
	}

	override := false
	if a.cfg.Override.Enabled {
		for _, it := range items {
			if it.PublishedAt.IsZero() {
				continue
			}
			age := now.Sub(it.PublishedAt).Hours()
			if age >= 0 && age <= a.cfg.Override.RecentHours && it.Score.Compound > a.cfg.Override.PositiveThreshold {
				override = true
				break
			}
		}
	}

	var (
		totalWeight float64
		compound    float64
		pos         float64
		neu         float64
		neg         float64
		counts      model.LabelCounts
		ageSum      float64
		n           int
	)
	for i, it := range items {
		age := ages[i]
		if a.cfg.MaxAgeHours > 0 && age > a.cfg.MaxAgeHours {
			continue
		}

		w := a.cfg.Weight(age)
		if override {
			w *= a.cfg.Override.damp(age, it.Score.Compound)
		}

		totalWeight += w
		compound += it.Score.Compound * w
		pos += it.Score.Positive * w
		neu += it.Score.Neutral * w
		neg += it.Score.Negative * w
		switch model.LabelFor(it.Score.Compound) {
		case model.LabelPositive:
			counts.Positive += w
		case model.LabelNegative:
			counts.Negative += w
		default:
			counts.Neutral += w
		}
		ageSum += age
		n++
	}

	if n == 0 || totalWeight == 0 {
		return nil
	}

	scale := float64(n) / totalWeight
	result := &model.AggregatedSentiment{
		Compound: compound / totalWeight,
		Positive: pos / totalWeight,
		Neutral:  neu / totalWeight,
		Negative: neg / totalWeight,
		Counts: model.LabelCounts{
			Positive: math.Round(counts.Positive * scale),
			Neutral:  math.Round(counts.Neutral * scale),
			Negative: math.Round(counts.Negative * scale),
		},
		Total:          n,
		AvgAgeHours:    ageSum / float64(n),
		HalfLifeHours:  a.cfg.HalfLifeHours,
		MaxAgeHours:    a.cfg.MaxAgeHours,
		TimeWeighted:   true,
		RecentOverride: override,
	}
	result.Label = model.LabelFor(result.Compound)
	return result
}

// Average returns the unweighted mean of scores, or nil for an empty batch.
func Average(scores []model.SentimentScore) *model.AggregatedSentiment {
	if len(scores) == 0 {
		return nil
	}

	var result model.AggregatedSentiment
	for _, s := range scores {
		result.Compound += s.Compound
		result.Positive += s.Positive
		result.Neutral += s.Neutral
		result.Negative += s.Negative
		switch model.LabelFor(s.Compound) {
		case model.LabelPositive:
			result.Counts.Positive++
		case model.LabelNegative:
			result.Counts.Negative++
		default:
			result.Counts.Neutral++
		}
	}

	n := float64(len(scores))
	result.Compound /= n
	result.Positive /= n
	result.Neutral /= n
	result.Negative /= n
	result.Total = len(scores)
	result.Label = model.LabelFor(result.Compound)
	return &result
}

// Reply is a comment text with its engagement score.
type Reply struct {
	Text  string
	Score int
}

// ReplyWeight returns ln(max(1, score+1)) + 0.1.
func ReplyWeight(score int) float64 {
	return math.Log(math.Max(1, float64(score)+1)) + 0.1
}

// Combined scores a post together with its replies. The post has weight 1;
// replies are weighted by ReplyWeight.
func (a *Aggregator) Combined(post string, replies []Reply) model.SentimentScore {
	type part struct {
		score  model.SentimentScore
		weight float64
	}
	parts := []part{{a.scorer.Score(post), 1}}
	for _, r := range replies {
		if r.Text == "" {
			continue
		}
		parts = append(parts, part{a.scorer.Score(r.Text), ReplyWeight(r.Score)})
	}

	var out model.SentimentScore
	var total float64
	for _, p := range parts {
		out.Compound += p.score.Compound * p.weight
		out.Positive += p.score.Positive * p.weight
		out.Neutral += p.score.Neutral * p.weight
		out.Negative += p.score.Negative * p.weight
		total += p.weight
	}
	out.Compound /= total
	out.Positive /= total
	out.Neutral /= total
	out.Negative /= total
	out.Label = model.LabelFor(out.Compound)
	return out
}

// ageHours returns non-negative hours since t; zero t means age 0.
func ageHours(now, t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	age := now.Sub(t).Hours()
	if age < 0 {
		return 0
	}
	return age
}
