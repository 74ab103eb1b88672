package market

import "math"

// Status labels the combination of sentiment sign, confirmation sign and
// confidence band.
type Status string

const (
	StatusNeutral                    Status = "neutral"
	StatusPositiveConfirmed          Status = "positive_confirmed"
	StatusPositivePartiallyConfirmed Status = "positive_partially_confirmed"
	StatusPositiveUnconfirmed        Status = "positive_unconfirmed"
	StatusPositiveButUnconfirmed     Status = "positive_but_unconfirmed"
	StatusNegativeConfirmed          Status = "negative_confirmed"
	StatusNegativePartiallyConfirmed Status = "negative_partially_confirmed"
	StatusNegativeUnconfirmed        Status = "negative_unconfirmed"
)

// ConfirmConfig holds the confirmation step functions and weights.
type ConfirmConfig struct {
	// NeutralBand: |sentiment| below this is labelled neutral.
	NeutralBand float64

	PriceScalePercent float64 // Price move giving full alignment

	VolumeSurgePercent float64
	VolumeSurgeScore   float64
	VolumeRisePercent  float64
	VolumeRiseScore    float64
	VolumeDropPercent  float64 // Negative threshold
	VolumeDropScore    float64

	BidAskScale       float64
	BidAskMaxAgree    float64
	BidAskMaxDisagree float64

	VelocityLowPercent  float64
	VelocityLowScore    float64
	VelocityHighPercent float64
	VelocityHighScore   float64

	WeightPrice    float64
	WeightVolume   float64
	WeightBidAsk   float64
	WeightVelocity float64

	ConfirmedConfidence float64
	PartialConfidence   float64
}

// DefaultConfirmConfig returns the standard thresholds.
func DefaultConfirmConfig() ConfirmConfig {
	return ConfirmConfig{
		NeutralBand:         0.1,
		PriceScalePercent:   5,
		VolumeSurgePercent:  50,
		VolumeSurgeScore:    0.3,
		VolumeRisePercent:   20,
		VolumeRiseScore:     0.15,
		VolumeDropPercent:   -20,
		VolumeDropScore:     -0.1,
		BidAskScale:         10,
		BidAskMaxAgree:      0.2,
		BidAskMaxDisagree:   0.15,
		VelocityLowPercent:  2,
		VelocityLowScore:    0.1,
		VelocityHighPercent: 5,
		VelocityHighScore:   0.2,
		WeightPrice:         0.5,
		WeightVolume:        0.3,
		WeightBidAsk:        0.15,
		WeightVelocity:      0.05,
		ConfirmedConfidence: 0.7,
		PartialConfidence:   0.4,
	}
}

// ConfirmInput is the market context for one sentiment value.
type ConfirmInput struct {
	Sentiment     float64
	PriceChange   float64 // Percent
	VolumeChange  float64 // Percent versus average
	BidAskImbal   float64 // (ask-bid)/bid
	HasBidAskData bool
}

// Confirmation is the result of Confirm.
type Confirmation struct {
	Sentiment          float64
	PriceAlignment     float64
	VolumeConfirmation float64
	BidAskConfirmation float64
	Velocity           float64
	Score              float64 // [-1, 1]
	Confidence         float64 // [0, 1]
	Status             Status
}

// Confirm scores how well market data corroborates the sentiment.
func Confirm(in ConfirmInput, cfg ConfirmConfig) Confirmation {
	c := Confirmation{Sentiment: in.Sentiment}

	c.PriceAlignment = priceAlignment(in.Sentiment, in.PriceChange, cfg.PriceScalePercent)
	c.VolumeConfirmation = volumeConfirmation(in.VolumeChange, cfg)
	if in.HasBidAskData {
		c.BidAskConfirmation = bidAskConfirmation(in.Sentiment, in.BidAskImbal, cfg)
	}
	c.Velocity = velocity(in.PriceChange, cfg)

	c.Score = clamp(
		c.PriceAlignment*cfg.WeightPrice+
			c.VolumeConfirmation*cfg.WeightVolume+
			c.BidAskConfirmation*cfg.WeightBidAsk+
			c.Velocity*cfg.WeightVelocity,
		-1, 1)

	c.Confidence = confidence(in.Sentiment, c.Score, in.PriceChange, in.VolumeChange)
	c.Status = status(in.Sentiment, c.Score, c.Confidence, cfg)
	return c
}

func priceAlignment(sentiment, priceChange, scale float64) float64 {
	if sentiment == 0 || priceChange == 0 || scale <= 0 {
		return 0
	}
	mag := math.Min(1, math.Abs(priceChange)/scale)
	if sign(sentiment) == sign(priceChange) {
		return mag
	}
	return -mag
}

func volumeConfirmation(change float64, cfg ConfirmConfig) float64 {
	switch {
	case change > cfg.VolumeSurgePercent:
		return cfg.VolumeSurgeScore
	case change > cfg.VolumeRisePercent:
		return cfg.VolumeRiseScore
	case change < cfg.VolumeDropPercent:
		return cfg.VolumeDropScore
	default:
		return 0
	}
}

func bidAskConfirmation(sentiment, imbalance float64, cfg ConfirmConfig) float64 {
	if sentiment == 0 || imbalance == 0 {
		return 0
	}
	scaled := math.Abs(imbalance) * cfg.BidAskScale
	if sign(sentiment) == sign(imbalance) {
		return math.Min(cfg.BidAskMaxAgree, scaled)
	}
	return -math.Min(cfg.BidAskMaxDisagree, scaled)
}

func velocity(priceChange float64, cfg ConfirmConfig) float64 {
	mag := math.Abs(priceChange)
	switch {
	case mag > cfg.VelocityHighPercent:
		return cfg.VelocityHighScore
	case mag > cfg.VelocityLowPercent:
		return cfg.VelocityLowScore
	default:
		return 0
	}
}

func confidence(sentiment, score, priceChange, volumeChange float64) float64 {
	c := math.Min(0.5, math.Abs(sentiment)) +
		0.3*math.Abs(score) +
		math.Min(0.15, math.Abs(priceChange)/10) +
		math.Min(0.05, math.Abs(volumeChange)/100)
	return clamp(c, 0, 1)
}

func status(sentiment, score, conf float64, cfg ConfirmConfig) Status {
	if math.Abs(sentiment) < cfg.NeutralBand {
		return StatusNeutral
	}

	positive := sentiment > 0
	confirmed := score > 0

	switch {
	case positive && confirmed:
		return band(conf, cfg, StatusPositiveConfirmed, StatusPositivePartiallyConfirmed, StatusPositiveUnconfirmed)
	case positive:
		return StatusPositiveButUnconfirmed
	case confirmed:
		// Market moving with negative sentiment is read as confirmation of the bad news.
		return StatusNegativeConfirmed
	default:
		return band(conf, cfg, StatusNegativeConfirmed, StatusNegativePartiallyConfirmed, StatusNegativeUnconfirmed)
	}
}

func band(conf float64, cfg ConfirmConfig, high, mid, low Status) Status {
	switch {
	case conf > cfg.ConfirmedConfidence:
		return high
	case conf > cfg.PartialConfidence:
		return mid
	default:
		return low
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
