package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/tickersense/internal/model"
)

// ErrNotFound means the provider has no quote for the symbol.
var ErrNotFound = errors.New("quote not found")

// Provider returns the latest quote for a symbol.
type Provider interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
}

// ChangePercent returns (price - previous) / previous * 100 rounded to four
// places, or zero without a previous close.
func ChangePercent(price, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return price.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(4)
}

// SpreadPercent returns (ask - bid) / price * 100 rounded to four places,
// or zero when any side is missing.
func SpreadPercent(bid, ask, price decimal.Decimal) decimal.Decimal {
	if !bid.IsPositive() || !ask.IsPositive() || !price.IsPositive() {
		return decimal.Zero
	}
	return ask.Sub(bid).Div(price).Mul(decimal.NewFromInt(100)).Round(4)
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
