package market

import (
	"testing"

	"github.com/rickgao/tickersense/internal/model"
)

var buyQuote = model.Quote{
	Symbol:        "AAPL",
	Price:         100,
	ChangePercent: 2,
	Volume:        2_000_000,
	AverageVolume: 1_000_000,
	Bid:           99.9,
	Ask:           100.1,
	BidSize:       300,
	AskSize:       100,
}

func TestPressureFrom(t *testing.T) {
	t.Run("buy side", func(t *testing.T) {
		p := PressureFrom(buyQuote)
		if !approx(p.BidAskFactor, 75) {
			t.Errorf("BidAskFactor = %v, want 75", p.BidAskFactor)
		}
		// 0.4·54 + 0.3·60 + 0.3·75
		if !approx(p.BuyPressure, 62.1) {
			t.Errorf("BuyPressure = %v, want 62.1", p.BuyPressure)
		}
		if !approx(p.SellPressure, 37.9) {
			t.Errorf("SellPressure = %v, want 37.9", p.SellPressure)
		}
		if p.Direction != DirectionBuy {
			t.Errorf("Direction = %q, want %q", p.Direction, DirectionBuy)
		}
	})

	t.Run("wide spread halves book factor", func(t *testing.T) {
		q := buyQuote
		q.Bid, q.Ask = 95, 105
		p := PressureFrom(q)
		if !approx(p.BidAskFactor, 62.5) {
			t.Errorf("BidAskFactor = %v, want 62.5", p.BidAskFactor)
		}
	})

	t.Run("thin volume", func(t *testing.T) {
		q := model.Quote{Price: 10, ChangePercent: -3, Volume: 200, AverageVolume: 1000}
		p := PressureFrom(q)
		// 0.4·44 + 0.3·44 + 0.3·50
		if !approx(p.BuyPressure, 45.8) {
			t.Errorf("BuyPressure = %v, want 45.8", p.BuyPressure)
		}
		if p.Direction != DirectionNeutral {
			t.Errorf("Direction = %q, want neutral (ratio too low to confirm)", p.Direction)
		}
	})

	t.Run("sell side on heavy volume", func(t *testing.T) {
		q := model.Quote{Price: 10, ChangePercent: -4, Volume: 3000, AverageVolume: 1000}
		if p := PressureFrom(q); p.Direction != DirectionSell {
			t.Errorf("Direction = %q, want sell", p.Direction)
		}
	})

	t.Run("no quote", func(t *testing.T) {
		p := PressureFrom(model.Quote{})
		if p != NeutralPressure() {
			t.Errorf("PressureFrom(zero) = %+v, want neutral", p)
		}
	})

	t.Run("clamped", func(t *testing.T) {
		q := model.Quote{Price: 10, ChangePercent: 200}
		if p := PressureFrom(q); p.BuyPressure != 100 {
			t.Errorf("BuyPressure = %v, want 100", p.BuyPressure)
		}
	})
}

func TestValidate(t *testing.T) {
	cfg := DefaultValidateConfig()
	buy := PressureFrom(buyQuote)
	neutral := NeutralPressure()

	tests := []struct {
		name      string
		sentiment float64
		trusted   bool
		pressure  Pressure
		valid     bool
		conf      float64
		risk      Risk
		alignment float64
	}{
		{"aligned trusted", 1.0, true, buy, true, 1.0, RiskLow, 1 - 2.1/100},
		{"aligned social", 1.0, false, buy, true, 0.7, RiskLow, 1 - 2.1/100},
		{"neutral sentiment", 0.05, false, buy, true, 0.5, RiskMedium, 0.5 - 11.6/200},
		{"weak trusted", -5, true, neutral, true, 0.6, RiskMedium, 0.25},
		{"weak social", -5, false, neutral, false, 0.2, RiskHigh, 0.25},
		{"contradicting trusted", -2, true, buy, true, 0.3, RiskHigh, -1 + 32.1/100},
		{"contradicting social", -2, false, buy, false, 0.1, RiskHigh, -1 + 32.1/100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.sentiment, "src", tt.trusted, tt.pressure, cfg)
			if v.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", v.Valid, tt.valid)
			}
			if !approx(v.Confidence, tt.conf) {
				t.Errorf("Confidence = %v, want %v", v.Confidence, tt.conf)
			}
			if v.Risk != tt.risk {
				t.Errorf("Risk = %q, want %q", v.Risk, tt.risk)
			}
			if !approx(v.Alignment, tt.alignment) {
				t.Errorf("Alignment = %v, want %v", v.Alignment, tt.alignment)
			}
			if v.Reason == "" {
				t.Error("Reason should not be empty")
			}
		})
	}
}

func TestValidateSources(t *testing.T) {
	cfg := DefaultValidateConfig()

	t.Run("invalid social excluded", func(t *testing.T) {
		news, social := 1.0, -2.0
		s := ValidateSources(&news, &social, buyQuote, cfg)
		if s.News == nil || s.Social == nil {
			t.Fatal("both validations expected")
		}
		if s.Social.Valid {
			t.Error("social should be invalid")
		}
		if !approx(s.OverallConfidence, 1.0) {
			t.Errorf("OverallConfidence = %v, want 1.0", s.OverallConfidence)
		}
		if s.Recommendation != HighConfidence {
			t.Errorf("Recommendation = %q, want %q", s.Recommendation, HighConfidence)
		}
	})

	t.Run("valid social halves", func(t *testing.T) {
		news, social := 1.0, 1.0
		s := ValidateSources(&news, &social, buyQuote, cfg)
		// mean(1.0, 0.7·0.5)
		if !approx(s.OverallConfidence, 0.675) {
			t.Errorf("OverallConfidence = %v, want 0.675", s.OverallConfidence)
		}
		if s.Recommendation != MediumConfidence {
			t.Errorf("Recommendation = %q, want %q", s.Recommendation, MediumConfidence)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		s := ValidateSources(nil, nil, buyQuote, cfg)
		if s.OverallConfidence != 0 || s.Recommendation != LowConfidence {
			t.Errorf("got %v/%q, want 0/%q", s.OverallConfidence, s.Recommendation, LowConfidence)
		}
	})
}
