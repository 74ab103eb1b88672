package anomaly

import (
	"math"
	"testing"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

var base = time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newItem(title string, score, comments int, author string, created time.Time, compound float64) model.Item {
	return model.Item{
		RawItem: model.RawItem{
			Source:    model.SourceReddit,
			Title:     title,
			Author:    author,
			Score:     score,
			Comments:  comments,
			CreatedAt: created,
		},
		Sentiment: model.SentimentScore{Compound: compound, Label: model.LabelFor(compound)},
	}
}

// spread returns n ordinary items created step apart from base.
func spread(n int, step time.Duration) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = newItem("quarterly results out", 50, 10, "trader", base.Add(time.Duration(i)*step), 0)
	}
	return items
}

func quote(volume, avg int64, change float64) *model.Quote {
	return &model.Quote{Symbol: "ABC", Price: 10, Volume: volume, AverageVolume: avg, ChangePercent: change}
}

func newDetector() *Detector {
	return NewDetector(DefaultThresholds(), Vocabulary{})
}

func TestAssess_InsufficientData(t *testing.T) {
	d := newDetector()

	tests := []struct {
		name  string
		items []model.Item
		q     *model.Quote
	}{
		{"no items", nil, quote(100, 100, 0)},
		{"no quote", spread(3, time.Hour), nil},
		{"empty quote", spread(3, time.Hour), &model.Quote{Symbol: "ABC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := d.Assess(tt.items, tt.q)
			if a.Flagged || a.RiskScore != 0 || a.Confidence != 0 {
				t.Errorf("Assess() = %+v, want zero risk", a)
			}
			if a.Recommendation != RecommendInsufficient {
				t.Errorf("Recommendation = %q, want %q", a.Recommendation, RecommendInsufficient)
			}
		})
	}
}

func TestAssess_VolumeSpike(t *testing.T) {
	d := newDetector()

	a := d.Assess(spread(3, time.Hour), quote(4_000_000, 1_000_000, 1))
	if !a.Fired(SignalVolumeSpike) {
		t.Fatal("volume spike did not fire at 4x average")
	}
	if len(a.Factors) != 1 {
		t.Fatalf("len(Factors) = %d, want 1", len(a.Factors))
	}
	if !approx(a.Factors[0].Confidence, 0.2) {
		t.Errorf("Confidence = %v, want 0.2", a.Factors[0].Confidence)
	}
	if !approx(a.RiskScore, 4) {
		t.Errorf("RiskScore = %v, want 4", a.RiskScore)
	}
	if a.Flagged {
		t.Error("Flagged = true, want false")
	}
	if a.Recommendation != RecommendClear {
		t.Errorf("Recommendation = %q, want %q", a.Recommendation, RecommendClear)
	}

	a = d.Assess(spread(3, time.Hour), quote(3_000_000, 1_000_000, 1))
	if a.Fired(SignalVolumeSpike) {
		t.Error("volume spike fired at exactly 3x average")
	}
}

func TestAssess_TemporalCluster(t *testing.T) {
	d := newDetector()

	// 25 posts inside 40 minutes.
	a := d.Assess(spread(25, 100*time.Second), quote(100, 100, 0))
	if !a.Fired(SignalTemporalCluster) {
		t.Fatal("temporal clustering did not fire for 25 posts in 40 minutes")
	}
	f := a.Factors[0]
	if f.Signal != SignalTemporalCluster || f.Value != 25 {
		t.Errorf("factor = %+v, want %s with value 25", f, SignalTemporalCluster)
	}
	if !approx(f.Confidence, 5.0/30) {
		t.Errorf("Confidence = %v, want %v", f.Confidence, 5.0/30)
	}

	tests := []struct {
		name  string
		items []model.Item
	}{
		{"exactly twenty in window", spread(20, time.Minute)},
		{"spread over a day", spread(25, time.Hour)},
		{"too few items", spread(4, time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d.Assess(tt.items, quote(100, 100, 0)).Fired(SignalTemporalCluster) {
				t.Error("temporal clustering fired")
			}
		})
	}
}

func TestAssess_TemporalClusterIgnoresUndated(t *testing.T) {
	d := newDetector()
	items := spread(21, time.Second)
	for i := range items[:17] {
		items[i].CreatedAt = time.Time{}
	}
	if d.Assess(items, quote(100, 100, 0)).Fired(SignalTemporalCluster) {
		t.Error("temporal clustering fired with only 4 dated items")
	}
}

func TestAssess_Engagement(t *testing.T) {
	d := newDetector()

	items := spread(10, time.Hour)
	for i := 0; i < 4; i++ {
		items[i] = newItem("URGENT buy now before the close", 3, 1, "trader", base.Add(time.Duration(i)*time.Hour), 0)
	}
	a := d.Assess(items, quote(100, 100, 0))
	if !a.Fired(SignalEngagement) {
		t.Fatal("engagement did not fire at 40% suspicious")
	}
	if a.Fired(SignalCredibility) || a.Fired(SignalKeywordDensity) {
		t.Errorf("unexpected signals: %v", a.Signals)
	}
	if !approx(a.Factors[0].Confidence, 0.2) {
		t.Errorf("Confidence = %v, want 0.2", a.Factors[0].Confidence)
	}

	// Same text on well-engaged posts is not suspicious.
	for i := 0; i < 4; i++ {
		items[i].Score = 40
	}
	if d.Assess(items, quote(100, 100, 0)).Fired(SignalEngagement) {
		t.Error("engagement fired for well-engaged posts")
	}
}

func TestAssess_Divergence(t *testing.T) {
	d := newDetector()

	tests := []struct {
		name     string
		compound float64
		change   float64
		fired    bool
		conf     float64
		kind     string
	}{
		{"bullish while falling", 0.8, -6, true, 0.6, DivergencePumpDump},
		{"bearish while rising", -0.8, 6, true, 0.6, DivergenceManipulation},
		{"bullish while rising", 0.8, 6, false, 0, ""},
		{"small move", 0.9, -4, false, 0, ""},
		{"confidence capped", 3, -10, true, 1, DivergencePumpDump},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []model.Item{
				newItem("a", 50, 10, "x", base, tt.compound),
				newItem("b", 50, 10, "y", base.Add(time.Hour), tt.compound),
			}
			a := d.Assess(items, quote(100, 100, tt.change))
			if a.Fired(SignalDivergence) != tt.fired {
				t.Fatalf("divergence fired = %v, want %v", a.Fired(SignalDivergence), tt.fired)
			}
			if a.DivergenceType != tt.kind {
				t.Errorf("DivergenceType = %q, want %q", a.DivergenceType, tt.kind)
			}
			if tt.fired && !approx(a.Factors[0].Confidence, tt.conf) {
				t.Errorf("Confidence = %v, want %v", a.Factors[0].Confidence, tt.conf)
			}
		})
	}
}

func TestAssess_CredibilityAndKeywords(t *testing.T) {
	d := newDetector()

	items := spread(10, time.Hour)
	for i := 0; i < 8; i++ {
		items[i].Author = "AutoPoster" + string(rune('a'+i))
	}
	a := d.Assess(items, quote(100, 100, 0))
	if !a.Fired(SignalCredibility) {
		t.Fatal("credibility did not fire at 80% bot-like authors")
	}
	if !approx(a.Factors[0].Confidence, 1) {
		t.Errorf("Confidence = %v, want 1", a.Factors[0].Confidence)
	}

	items = spread(10, time.Hour)
	for i := 0; i < 3; i++ {
		items[i].Title = "YOLO, hodl this one"
	}
	a = d.Assess(items, quote(100, 100, 0))
	if !a.Fired(SignalKeywordDensity) {
		t.Fatal("keyword density did not fire at 30%")
	}
	if !approx(a.Factors[0].Confidence, 0.2) {
		t.Errorf("Confidence = %v, want 0.2", a.Factors[0].Confidence)
	}
}

func TestAssess_Composite(t *testing.T) {
	d := newDetector()

	t.Run("every signal", func(t *testing.T) {
		items := make([]model.Item, 25)
		for i := range items {
			items[i] = newItem("YOLO rocket to the moon 🚀🚀🚀", 0, 0, "autobot_1", base.Add(time.Duration(i)*time.Minute), 3)
		}
		a := d.Assess(items, quote(10_000_000, 1_000_000, -10))

		for _, s := range AllSignals {
			if !a.Fired(s) {
				t.Errorf("signal %s did not fire", s)
			}
		}
		if a.RiskScore != 100 {
			t.Errorf("RiskScore = %v, want capped 100", a.RiskScore)
		}
		if a.Confidence != 1 {
			t.Errorf("Confidence = %v, want 1", a.Confidence)
		}
		if !a.Flagged || a.Recommendation != RecommendHigh {
			t.Errorf("Flagged = %v, Recommendation = %q", a.Flagged, a.Recommendation)
		}
		if a.Trust() != 0 {
			t.Errorf("Trust() = %v, want 0", a.Trust())
		}
	})

	t.Run("three weak signals", func(t *testing.T) {
		items := spread(25, time.Minute)
		for i := range items {
			items[i].Author = "newsbot"
		}
		a := d.Assess(items, quote(4_000_000, 1_000_000, 0))

		if len(a.Factors) != 3 {
			t.Fatalf("len(Factors) = %d, want 3", len(a.Factors))
		}
		if !a.Flagged {
			t.Error("Flagged = false, want true with three signals")
		}
		if a.RiskScore >= 60 {
			t.Errorf("RiskScore = %v, want below 60", a.RiskScore)
		}
		if a.Recommendation != RecommendLowFlagged {
			t.Errorf("Recommendation = %q, want %q", a.Recommendation, RecommendLowFlagged)
		}
		if !approx(a.Confidence, 0.5) {
			t.Errorf("Confidence = %v, want 0.5", a.Confidence)
		}
	})
}

func TestAssess_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.ClusterCount = 5
	d := NewDetector(th, Vocabulary{})

	if !d.Assess(spread(6, time.Minute), quote(100, 100, 0)).Fired(SignalTemporalCluster) {
		t.Error("temporal clustering did not fire with lowered count")
	}
}

func TestAdjustSentiment(t *testing.T) {
	d := newDetector()

	tests := []struct {
		sentiment, trust, want float64
	}{
		{0.5, 40, 0.2},
		{-1, 10, -0.1},
		{0.5, 50, 0.5},
		{0.5, 90, 0.5},
	}
	for _, tt := range tests {
		if got := d.AdjustSentiment(tt.sentiment, tt.trust); !approx(got, tt.want) {
			t.Errorf("AdjustSentiment(%v, %v) = %v, want %v", tt.sentiment, tt.trust, got, tt.want)
		}
	}
}
