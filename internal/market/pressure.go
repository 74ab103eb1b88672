package market

import (
	"math"

	"github.com/rickgao/tickersense/internal/model"
)

// Direction is the net side of market interest.
type Direction string

const (
	DirectionBuy     Direction = "buy"
	DirectionSell    Direction = "sell"
	DirectionNeutral Direction = "neutral"
)

// Pressure is the buy/sell pressure derived from a quote.
type Pressure struct {
	BuyPressure  float64 // [0, 100]
	SellPressure float64 // 100 - BuyPressure
	VolumeRatio  float64
	PriceChange  float64
	BidAskFactor float64
	Direction    Direction
}

// NeutralPressure is used when no quote is available.
func NeutralPressure() Pressure {
	return Pressure{
		BuyPressure:  50,
		SellPressure: 50,
		VolumeRatio:  1,
		BidAskFactor: 50,
		Direction:    DirectionNeutral,
	}
}

// PressureFrom computes buy pressure as 0.4·price + 0.3·volume + 0.3·order
// book, each factor on a 0-100 scale centred at 50.
func PressureFrom(q model.Quote) Pressure {
	if q.IsZero() {
		return NeutralPressure()
	}

	ratio := q.VolumeRatio()

	priceFactor := 50 + q.ChangePercent*2

	volumeFactor := 50.0
	switch {
	case ratio > 1.5:
		volumeFactor = math.Min(100, 50+(ratio-1.5)*20)
	case ratio < 0.5:
		volumeFactor = math.Max(0, 50-(0.5-ratio)*20)
	}

	bidAskFactor := 50.0
	if q.Bid > 0 && q.Ask > 0 {
		if total := float64(q.BidSize + q.AskSize); total > 0 {
			bidRatio := float64(q.BidSize) / total
			askRatio := float64(q.AskSize) / total
			bidAskFactor = 50 + (bidRatio-askRatio)*50

			// A wide spread means the book says little about real demand.
			if spreadPct := (q.Ask - q.Bid) / q.Price * 100; spreadPct > 2 {
				bidAskFactor = 50 + (bidAskFactor-50)*0.5
			}
		}
	}

	buy := clamp(priceFactor*0.4+volumeFactor*0.3+bidAskFactor*0.3, 0, 100)

	dir := DirectionNeutral
	switch {
	case (q.ChangePercent > 1 && ratio > 1.2) || bidAskFactor > 60:
		dir = DirectionBuy
	case (q.ChangePercent < -1 && ratio > 1.2) || bidAskFactor < 40:
		dir = DirectionSell
	}

	return Pressure{
		BuyPressure:  buy,
		SellPressure: 100 - buy,
		VolumeRatio:  ratio,
		PriceChange:  q.ChangePercent,
		BidAskFactor: bidAskFactor,
		Direction:    dir,
	}
}
