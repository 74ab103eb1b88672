package model

import (
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Sources
// -----------------------------------------------------------------------------

// Source identifies the external collaborator an item came from.
type Source string

const (
	SourceReddit Source = "reddit"
	SourceNews   Source = "news"
)

// -----------------------------------------------------------------------------
// Entities
// -----------------------------------------------------------------------------

// TrackedEntity is a ticker the pipeline monitors.
type TrackedEntity struct {
	Symbol      string    // Canonical upper-case ticker
	Aliases     []string  // Extra query strings (e.g. "$AAPL", "Apple")
	LastRefresh time.Time // Zero until the first successful refresh
	Stale       bool      // Marked when the universe no longer lists the symbol
}

// Queries returns the search strings for this entity: the symbol, the
// "$"-prefixed form, "<symbol> stock", then aliases, without duplicates.
func (e TrackedEntity) Queries() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || seen[strings.ToLower(q)] {
			return
		}
		seen[strings.ToLower(q)] = true
		out = append(out, q)
	}

	add(e.Symbol)
	add("$" + e.Symbol)
	add(e.Symbol + " stock")
	for _, a := range e.Aliases {
		add(a)
	}
	return out
}

// -----------------------------------------------------------------------------
// Items
// -----------------------------------------------------------------------------

// RawItem is one fetched post or article before scoring.
type RawItem struct {
	Source    Source
	OriginID  string // Source-native id (post id, article URL hash)
	Title     string
	Body      string
	Author    string
	URL       string
	Publisher string // News publisher or subreddit
	Score     int    // Upvotes / engagement score
	Comments  int    // Comment count
	CreatedAt time.Time
	FetchedAt time.Time
	Symbols   []string
}

// Text returns the scoring text: title and body joined by a space.
func (r RawItem) Text() string {
	return strings.TrimSpace(r.Title + " " + r.Body)
}

// Comment is a reply attached to a social post.
type Comment struct {
	ID        string
	PostID    string
	Body      string
	Author    string
	Score     int
	CreatedAt time.Time
	FetchedAt time.Time
	Symbols   []string
	Sentiment SentimentScore
}

// Item is a normalized, scored, fingerprinted record ready to persist.
type Item struct {
	RawItem
	Fingerprint string
	Sentiment   SentimentScore
}

// -----------------------------------------------------------------------------
// Sentiment
// -----------------------------------------------------------------------------

// Label is the discrete sentiment class.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// LabelFor maps a compound score to a label using the ±0.05 thresholds.
func LabelFor(compound float64) Label {
	switch {
	case compound >= 0.05:
		return LabelPositive
	case compound <= -0.05:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// SentimentScore is the polarity of a single text.
type SentimentScore struct {
	Compound float64 // [-5, 5]
	Positive float64 // Component shares, each [0, 1]
	Neutral  float64
	Negative float64
	Label    Label
}

// LabelCounts holds per-label (possibly weighted) counts.
type LabelCounts struct {
	Positive float64
	Neutral  float64
	Negative float64
}

// AggregatedSentiment combines the scores of many items for one entity.
type AggregatedSentiment struct {
	Compound       float64
	Positive       float64
	Neutral        float64
	Negative       float64
	Label          Label
	Counts         LabelCounts
	Total          int
	AvgAgeHours    float64
	HalfLifeHours  float64
	MaxAgeHours    float64
	TimeWeighted   bool
	RecentOverride bool // Older negative items were suppressed by a recent positive one
}

// -----------------------------------------------------------------------------
// Market data
// -----------------------------------------------------------------------------

// Quote is the latest market snapshot for a symbol.
type Quote struct {
	Symbol        string
	Name          string
	Price         float64
	PreviousClose float64
	ChangePercent float64
	Volume        int64
	AverageVolume int64
	Bid           float64
	Ask           float64
	BidSize       int64
	AskSize       int64
	FetchedAt     time.Time
}

// VolumeChangePercent returns current volume versus average, in percent.
// Zero when no average is known.
func (q Quote) VolumeChangePercent() float64 {
	if q.AverageVolume <= 0 {
		return 0
	}
	return (float64(q.Volume) - float64(q.AverageVolume)) / float64(q.AverageVolume) * 100
}

// VolumeRatio returns current over average volume, or 1 when unknown.
func (q Quote) VolumeRatio() float64 {
	if q.AverageVolume <= 0 {
		return 1
	}
	return float64(q.Volume) / float64(q.AverageVolume)
}

// BidAskImbalance returns (ask-bid)/bid, or 0 when either side is missing.
func (q Quote) BidAskImbalance() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return 0
	}
	return (q.Ask - q.Bid) / q.Bid
}

// IsZero reports whether the quote carries no price.
func (q Quote) IsZero() bool {
	return q.Price == 0
}
