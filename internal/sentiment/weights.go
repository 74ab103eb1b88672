package sentiment

import (
	"strings"

	"github.com/rickgao/tickersense/internal/model"
)

// SourceWeights assigns credibility to item origins.
type SourceWeights struct {
	Filing     float64 // Regulatory filings
	Wire       float64 // Wire services
	Finance    float64 // Finance news portals
	SocialHigh float64 // Social posts above SocialScoreThreshold
	SocialLow  float64 // Other social posts
	Default    float64
	// SocialScoreThreshold is the engagement score above which a social post
	// counts as high credibility.
	SocialScoreThreshold int
}

// DefaultSourceWeights returns the standard credibility table.
func DefaultSourceWeights() SourceWeights {
	return SourceWeights{
		Filing:               1.0,
		Wire:                 0.9,
		Finance:              0.7,
		SocialHigh:           0.5,
		SocialLow:            0.2,
		Default:              0.5,
		SocialScoreThreshold: 10,
	}
}

// For returns the weight of an item with the given origin name and score.
func (w SourceWeights) For(origin string, score int) float64 {
	o := strings.ToLower(origin)
	switch {
	case strings.Contains(o, "sec") || strings.Contains(o, "filing"):
		return w.Filing
	case strings.Contains(o, "reuters"):
		return w.Wire
	case strings.Contains(o, "yahoo") || strings.Contains(o, "finance"):
		return w.Finance
	case strings.Contains(o, "reddit"):
		if score > w.SocialScoreThreshold {
			return w.SocialHigh
		}
		return w.SocialLow
	default:
		return w.Default
	}
}

// ItemWeight returns the weight for a scored item. News items are weighed by
// publisher; an empty publisher counts as a finance portal.
func (w SourceWeights) ItemWeight(it model.Item) float64 {
	if it.Source == model.SourceReddit {
		return w.For(string(model.SourceReddit), it.Score)
	}
	if it.Publisher == "" {
		return w.Finance
	}
	return w.For(it.Publisher, it.Score)
}

// Blend returns the source-weighted mean compound across items. ok is false
// when there is nothing to weigh.
func (w SourceWeights) Blend(items []model.Item) (compound float64, ok bool) {
	var sum, total float64
	for _, it := range items {
		wt := w.ItemWeight(it)
		sum += it.Sentiment.Compound * wt
		total += wt
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}
