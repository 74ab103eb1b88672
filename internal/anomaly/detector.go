package anomaly

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

// Signal names one anomaly check.
type Signal string

const (
	SignalVolumeSpike     Signal = "volume_spike"
	SignalEngagement      Signal = "engagement_suspicious"
	SignalDivergence      Signal = "price_sentiment_divergence"
	SignalTemporalCluster Signal = "time_pattern"
	SignalCredibility     Signal = "source_credibility"
	SignalKeywordDensity  Signal = "pump_keywords"
)

// AllSignals lists every signal in evaluation order.
var AllSignals = []Signal{
	SignalVolumeSpike,
	SignalEngagement,
	SignalDivergence,
	SignalTemporalCluster,
	SignalCredibility,
	SignalKeywordDensity,
}

// Divergence directions.
const (
	DivergencePumpDump     = "pump_dump"
	DivergenceManipulation = "manipulation"
)

// Recommendation texts.
const (
	RecommendInsufficient = "Insufficient data"
	RecommendHigh         = "HIGH RISK: Strong pump-and-dump signals detected. Avoid or be very cautious."
	RecommendModerate     = "MODERATE RISK: Some pump-and-dump signals detected. Proceed with caution."
	RecommendLowFlagged   = "LOW RISK: Minor pump-and-dump signals detected. Monitor closely."
	RecommendClear        = "LOW RISK: No significant pump-and-dump signals detected."
)

// Factor is one triggered signal with its confidence.
type Factor struct {
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Value      float64 `json:"value"` // The measured quantity (ratio, count, average)
}

// Assessment is the composite verdict for one entity.
type Assessment struct {
	Flagged        bool            `json:"is_pump_dump"`
	Confidence     float64         `json:"confidence"`
	RiskScore      float64         `json:"risk_score"`
	Signals        map[Signal]bool `json:"signals"`
	Factors        []Factor        `json:"risk_factors"`
	DivergenceType string          `json:"divergence_type,omitempty"`
	Recommendation string          `json:"recommendation"`
}

// Trust returns 100 - risk, clamped to [0, 100].
func (a Assessment) Trust() float64 {
	return math.Max(0, math.Min(100, 100-a.RiskScore))
}

// Fired reports whether the given signal triggered.
func (a Assessment) Fired(s Signal) bool {
	return a.Signals[s]
}

// Detector evaluates the anomaly signals. It is safe for concurrent use.
type Detector struct {
	th    Thresholds
	vocab Vocabulary
}

// NewDetector creates a detector. Empty vocabulary lists fall back to the
// defaults.
func NewDetector(th Thresholds, vocab Vocabulary) *Detector {
	def := DefaultVocabulary()
	if len(vocab.Pump) == 0 {
		vocab.Pump = def.Pump
	}
	if len(vocab.Suspicious) == 0 {
		vocab.Suspicious = def.Suspicious
	}
	if len(vocab.BotAuthors) == 0 {
		vocab.BotAuthors = def.BotAuthors
	}
	return &Detector{th: th, vocab: vocab.lower()}
}

// Thresholds returns the detector's thresholds.
func (d *Detector) Thresholds() Thresholds {
	return d.th
}

// Assess runs every signal over items and the quote. Without items or a
// quote the assessment is empty with zero risk.
func (d *Detector) Assess(items []model.Item, q *model.Quote) Assessment {
	if len(items) == 0 || q == nil || q.IsZero() {
		return Assessment{
			Signals:        map[Signal]bool{},
			Recommendation: RecommendInsufficient,
		}
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = strings.ToLower(it.Title + " " + it.Body)
	}

	a := Assessment{Signals: make(map[Signal]bool, len(AllSignals))}
	record := func(s Signal, fired bool, conf, value float64) {
		a.Signals[s] = fired
		if fired {
			a.Factors = append(a.Factors, Factor{Signal: s, Confidence: conf, Value: value})
		}
	}

	fired, conf, v := d.volumeSpike(*q)
	record(SignalVolumeSpike, fired, conf, v)

	fired, conf, v = d.engagement(items, texts)
	record(SignalEngagement, fired, conf, v)

	fired, conf, v, kind := d.divergence(items, *q)
	record(SignalDivergence, fired, conf, v)
	a.DivergenceType = kind

	fired, conf, v = d.temporalCluster(items)
	record(SignalTemporalCluster, fired, conf, v)

	fired, conf, v = d.credibility(items)
	record(SignalCredibility, fired, conf, v)

	fired, conf, v = d.keywordDensity(texts)
	record(SignalKeywordDensity, fired, conf, v)

	var risk float64
	for _, f := range a.Factors {
		risk += f.Confidence * d.th.SignalWeight
	}
	a.RiskScore = math.Min(100, risk)
	a.Confidence = float64(len(a.Factors)) / float64(len(AllSignals))
	a.Flagged = len(a.Factors) >= d.th.MinSignals || a.RiskScore >= d.th.FlagRisk
	a.Recommendation = d.recommend(a)
	return a
}

func (d *Detector) recommend(a Assessment) string {
	if !a.Flagged {
		return RecommendClear
	}
	switch {
	case a.RiskScore >= d.th.HighRisk:
		return RecommendHigh
	case a.RiskScore >= d.th.FlagRisk:
		return RecommendModerate
	default:
		return RecommendLowFlagged
	}
}

// AdjustSentiment scales a sentiment by trust/100 when trust is below the
// configured floor and returns it unchanged otherwise.
func (d *Detector) AdjustSentiment(sentiment, trust float64) float64 {
	if trust < d.th.TrustFloor {
		return sentiment * trust / 100
	}
	return sentiment
}

// graded maps a value past its threshold onto [0, 1] over span.
func graded(value, threshold, span float64) float64 {
	if span <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, (value-threshold)/span))
}

func (d *Detector) volumeSpike(q model.Quote) (bool, float64, float64) {
	if q.Volume <= 0 || q.AverageVolume <= 0 {
		return false, 0, 0
	}
	ratio := q.VolumeRatio()
	if ratio <= d.th.VolumeRatio {
		return false, 0, ratio
	}
	return true, graded(ratio, d.th.VolumeRatio, d.th.VolumeSpan), ratio
}

// engagement counts items that are both barely engaged with and carry
// heavy pump vocabulary or an urgency pattern.
func (d *Detector) engagement(items []model.Item, texts []string) (bool, float64, float64) {
	var suspicious int
	for i, it := range items {
		low := it.Score < d.th.LowEngagementScore && it.Comments < d.th.LowEngagementComments
		if !low {
			continue
		}
		if countContains(texts[i], d.vocab.Pump) >= d.th.EngagementKeywordHits ||
			countContains(texts[i], d.vocab.Suspicious) > 0 {
			suspicious++
		}
	}
	ratio := float64(suspicious) / float64(len(items))
	if ratio <= d.th.EngagementRatio {
		return false, 0, ratio
	}
	return true, graded(ratio, d.th.EngagementRatio, d.th.EngagementSpan), ratio
}

func (d *Detector) divergence(items []model.Item, q model.Quote) (bool, float64, float64, string) {
	var sum float64
	var n int
	for _, it := range items {
		if it.Sentiment.Label == "" {
			continue
		}
		sum += it.Sentiment.Compound
		n++
	}
	if n == 0 {
		return false, 0, 0, ""
	}
	avg := sum / float64(n)
	pc := q.ChangePercent

	switch {
	case avg > d.th.DivergenceSentiment && pc < -d.th.DivergencePriceChange:
		return true, graded(avg, d.th.DivergenceSentiment, d.th.DivergenceSpan), avg, DivergencePumpDump
	case avg < -d.th.DivergenceSentiment && pc > d.th.DivergencePriceChange:
		return true, graded(-avg, d.th.DivergenceSentiment, d.th.DivergenceSpan), avg, DivergenceManipulation
	}
	return false, 0, avg, ""
}

// temporalCluster finds the largest number of items starting at any item
// and ending within the window.
func (d *Detector) temporalCluster(items []model.Item) (bool, float64, float64) {
	times := make([]time.Time, 0, len(items))
	for _, it := range items {
		if !it.CreatedAt.IsZero() {
			times = append(times, it.CreatedAt)
		}
	}
	if len(times) < d.th.ClusterMinItems {
		return false, 0, 0
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var most, end int
	for start := range times {
		limit := times[start].Add(d.th.ClusterWindow)
		if end < start {
			end = start
		}
		for end < len(times) && !times[end].After(limit) {
			end++
		}
		if n := end - start; n > most {
			most = n
		}
	}

	count := float64(most)
	if most <= d.th.ClusterCount {
		return false, 0, count
	}
	return true, graded(count, float64(d.th.ClusterCount), d.th.ClusterSpan), count
}

func (d *Detector) credibility(items []model.Item) (bool, float64, float64) {
	var low int
	for _, it := range items {
		author := strings.ToLower(it.Author)
		if countContains(author, d.vocab.BotAuthors) > 0 || it.Score < d.th.LowCredibilityScore {
			low++
		}
	}
	ratio := float64(low) / float64(len(items))
	if ratio <= d.th.CredibilityRatio {
		return false, 0, ratio
	}
	return true, graded(ratio, d.th.CredibilityRatio, d.th.CredibilitySpan), ratio
}

func (d *Detector) keywordDensity(texts []string) (bool, float64, float64) {
	var dense int
	for _, text := range texts {
		if countContains(text, d.vocab.Pump) >= d.th.KeywordHits {
			dense++
		}
	}
	ratio := float64(dense) / float64(len(texts))
	if ratio <= d.th.KeywordRatio {
		return false, 0, ratio
	}
	return true, graded(ratio, d.th.KeywordRatio, d.th.KeywordSpan), ratio
}

// countContains counts how many of terms occur in text as substrings.
func countContains(text string, terms []string) int {
	var n int
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			n++
		}
	}
	return n
}
