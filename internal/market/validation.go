package market

import (
	"fmt"
	"math"

	"github.com/rickgao/tickersense/internal/model"
)

// Risk is the manipulation risk tier of a validation.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Recommendation bands for a multi-source summary.
const (
	HighConfidence   = "high_confidence"
	MediumConfidence = "medium_confidence"
	LowConfidence    = "low_confidence"
)

// ValidateConfig holds validation thresholds.
type ValidateConfig struct {
	TrustedBaseConfidence float64
	OtherBaseConfidence   float64
	StrongAlignment       float64
	ModerateAlignment     float64
	WeakAlignment         float64
	// DirectionBand: |sentiment| above this implies buy or sell.
	DirectionBand float64
	// PressureScale maps sentiment to 0-100 pressure as 50 + sentiment·scale.
	PressureScale float64
}

// DefaultValidateConfig returns the standard thresholds.
func DefaultValidateConfig() ValidateConfig {
	return ValidateConfig{
		TrustedBaseConfidence: 0.8,
		OtherBaseConfidence:   0.5,
		StrongAlignment:       0.7,
		ModerateAlignment:     0.3,
		WeakAlignment:         -0.3,
		DirectionBand:         0.1,
		PressureScale:         10,
	}
}

// Validation is the trust decision for one source's sentiment.
type Validation struct {
	Source            string
	Trusted           bool
	Valid             bool
	Confidence        float64 // [0, 1]
	Alignment         float64 // [-1, 1]
	SentimentPressure float64
	ActualPressure    float64
	PressureDiff      float64
	Risk              Risk
	Reason            string
}

// Validate compares the pressure implied by sentiment with the market's.
// Untrusted sources are invalidated when alignment is poor; a trusted source
// stays valid with reduced confidence.
func Validate(sentiment float64, source string, trusted bool, p Pressure, cfg ValidateConfig) Validation {
	implied := 50 + sentiment*cfg.PressureScale
	diff := math.Abs(implied - p.BuyPressure)

	dir := DirectionNeutral
	switch {
	case sentiment > cfg.DirectionBand:
		dir = DirectionBuy
	case sentiment < -cfg.DirectionBand:
		dir = DirectionSell
	}

	var alignment float64
	switch {
	case dir == p.Direction:
		alignment = 1 - diff/100
	case dir == DirectionNeutral || p.Direction == DirectionNeutral:
		alignment = 0.5 - diff/200
	default:
		alignment = -1 + diff/100
	}
	alignment = clamp(alignment, -1, 1)

	base := cfg.OtherBaseConfidence
	if trusted {
		base = cfg.TrustedBaseConfidence
	}

	v := Validation{
		Source:            source,
		Trusted:           trusted,
		Alignment:         alignment,
		SentimentPressure: implied,
		ActualPressure:    p.BuyPressure,
		PressureDiff:      diff,
	}

	switch {
	case alignment > cfg.StrongAlignment:
		v.Confidence = math.Min(1, base+0.2)
		v.Valid = true
		v.Risk = RiskLow
		v.Reason = fmt.Sprintf("%s sentiment aligned with market pressure (%.2f)", source, alignment)
	case alignment > cfg.ModerateAlignment:
		v.Confidence = base
		v.Valid = true
		v.Risk = RiskMedium
		v.Reason = fmt.Sprintf("%s sentiment moderately aligned with market pressure (%.2f)", source, alignment)
	case alignment > cfg.WeakAlignment:
		if trusted {
			v.Confidence = math.Max(0.4, base-0.2)
			v.Valid = true
			v.Risk = RiskMedium
			v.Reason = fmt.Sprintf("%s sentiment weakly aligned with market pressure (%.2f)", source, alignment)
		} else {
			v.Confidence = math.Max(0.2, base-0.4)
			v.Risk = RiskHigh
			v.Reason = fmt.Sprintf("%s sentiment diverges from market pressure, possible bot or manipulation activity (%.2f)", source, alignment)
		}
	default:
		if trusted {
			v.Confidence = 0.3
			v.Valid = true
			v.Risk = RiskHigh
			v.Reason = fmt.Sprintf("%s sentiment contradicts market pressure (%.2f)", source, alignment)
		} else {
			v.Confidence = 0.1
			v.Risk = RiskHigh
			v.Reason = fmt.Sprintf("%s sentiment contradicts market pressure, likely manipulated (%.2f)", source, alignment)
		}
	}

	return v
}

// Summary is the validation of every source for one entity.
type Summary struct {
	Pressure          Pressure
	News              *Validation
	Social            *Validation
	OverallConfidence float64
	Recommendation    string
}

// ValidateSources validates the news (trusted) and social sentiments against
// one quote. Either sentiment may be nil. A valid social source contributes
// half its confidence to the overall score.
func ValidateSources(news, social *float64, q model.Quote, cfg ValidateConfig) Summary {
	s := Summary{Pressure: PressureFrom(q)}

	var confidences []float64
	if news != nil {
		v := Validate(*news, string(model.SourceNews), true, s.Pressure, cfg)
		s.News = &v
		confidences = append(confidences, v.Confidence)
	}
	if social != nil {
		v := Validate(*social, string(model.SourceReddit), false, s.Pressure, cfg)
		s.Social = &v
		if v.Valid {
			confidences = append(confidences, v.Confidence*0.5)
		}
	}

	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		s.OverallConfidence = sum / float64(len(confidences))
	}

	switch {
	case s.OverallConfidence > 0.7:
		s.Recommendation = HighConfidence
	case s.OverallConfidence > 0.4:
		s.Recommendation = MediumConfidence
	default:
		s.Recommendation = LowConfidence
	}
	return s
}
