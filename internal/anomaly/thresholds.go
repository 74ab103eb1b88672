package anomaly

import (
	"strings"
	"time"
)

// Thresholds holds every tunable of the detector.
type Thresholds struct {
	// Volume spike: fires above VolumeRatio times average volume; confidence
	// reaches 1 at VolumeRatio+VolumeSpan.
	VolumeRatio float64
	VolumeSpan  float64

	// Engagement: an item is suspicious when its score and comment count are
	// both below the low-engagement marks and it carries at least
	// EngagementKeywordHits pump terms or any suspicious pattern.
	LowEngagementScore    int
	LowEngagementComments int
	EngagementKeywordHits int
	EngagementRatio       float64
	EngagementSpan        float64

	// Divergence: |average sentiment| above DivergenceSentiment while price
	// moved more than DivergencePriceChange percent the other way.
	DivergenceSentiment   float64
	DivergencePriceChange float64
	DivergenceSpan        float64

	// Temporal clustering over a rolling window.
	ClusterMinItems int
	ClusterWindow   time.Duration
	ClusterCount    int
	ClusterSpan     float64

	// Credibility: bot-like author or a score below LowCredibilityScore.
	LowCredibilityScore int
	CredibilityRatio    float64
	CredibilitySpan     float64

	// Keyword density: items with at least KeywordHits pump terms.
	KeywordHits  int
	KeywordRatio float64
	KeywordSpan  float64

	// Composite.
	SignalWeight float64 // Risk points per unit of confidence
	MinSignals   int     // Flag when at least this many signals fire
	FlagRisk     float64 // Flag when risk reaches this
	HighRisk     float64
	TrustFloor   float64 // Sentiment is damped below this trust
}

// DefaultThresholds returns the standard detector thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VolumeRatio: 3.0,
		VolumeSpan:  5.0,

		LowEngagementScore:    5,
		LowEngagementComments: 3,
		EngagementKeywordHits: 3,
		EngagementRatio:       0.3,
		EngagementSpan:        0.5,

		DivergenceSentiment:   0.5,
		DivergencePriceChange: 5,
		DivergenceSpan:        0.5,

		ClusterMinItems: 5,
		ClusterWindow:   time.Hour,
		ClusterCount:    20,
		ClusterSpan:     30,

		LowCredibilityScore: 2,
		CredibilityRatio:    0.5,
		CredibilitySpan:     0.3,

		KeywordHits:  2,
		KeywordRatio: 0.2,
		KeywordSpan:  0.5,

		SignalWeight: 20,
		MinSignals:   3,
		FlagRisk:     60,
		HighRisk:     80,
		TrustFloor:   50,
	}
}

// Vocabulary holds the term lists matched against item text and authors.
// Matching is case-insensitive substring containment.
type Vocabulary struct {
	Pump       []string
	Suspicious []string
	BotAuthors []string
}

// DefaultVocabulary returns the built-in term lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Pump: []string{
			"to the moon", "rocket", "moon", "pump", "yolo", "hodl",
			"diamond hands", "apes together strong", "buy the dip",
			"this is the way", "wen moon", "wen lambo", "stocks only go up",
		},
		Suspicious: []string{
			"🚀🚀🚀", "📈📈📈", "💎💎💎",
			"buy now", "urgent", "don't miss",
			"guaranteed", "100% sure", "can't lose",
		},
		BotAuthors: []string{"bot", "auto", "generated", "user_"},
	}
}

func (v Vocabulary) lower() Vocabulary {
	return Vocabulary{
		Pump:       lowerAll(v.Pump),
		Suspicious: lowerAll(v.Suspicious),
		BotAuthors: lowerAll(v.BotAuthors),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
