package quote

import (
	"context"
	"fmt"

	"github.com/piquette/finance-go"
	fquote "github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/model"
)

// FinanceProvider reads quotes through the finance-go client.
type FinanceProvider struct {
	get   func(symbol string) (*finance.Quote, error)
	clock clock.Clock
}

// NewFinanceProvider creates a finance-go backed provider.
func NewFinanceProvider(clk clock.Clock) *FinanceProvider {
	if clk == nil {
		clk = clock.New()
	}
	return &FinanceProvider{get: fquote.Get, clock: clk}
}

// Quote implements Provider. The underlying client is not context-aware;
// a cancelled ctx abandons the call rather than interrupting it.
func (p *FinanceProvider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = normalize(symbol)

	type result struct {
		q   *finance.Quote
		err error
	}
	ch := make(chan result, 1)
	go func() {
		q, err := p.get(symbol)
		ch <- result{q, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return model.Quote{}, ctx.Err()
	case r = <-ch:
	}

	if r.err != nil {
		return model.Quote{}, fmt.Errorf("finance quote %s: %w", symbol, r.err)
	}
	if r.q == nil || r.q.RegularMarketPrice == 0 {
		return model.Quote{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return fromFinance(r.q, p.clock), nil
}

func fromFinance(q *finance.Quote, clk clock.Clock) model.Quote {
	price := decimal.NewFromFloat(q.RegularMarketPrice)
	prev := decimal.NewFromFloat(q.RegularMarketPreviousClose)

	change := q.RegularMarketChangePercent
	if change == 0 {
		change = ChangePercent(price, prev).InexactFloat64()
	}

	return model.Quote{
		Symbol:        normalize(q.Symbol),
		Name:          q.ShortName,
		Price:         q.RegularMarketPrice,
		PreviousClose: q.RegularMarketPreviousClose,
		ChangePercent: change,
		Volume:        int64(q.RegularMarketVolume),
		AverageVolume: int64(q.AverageDailyVolume3Month),
		Bid:           q.Bid,
		Ask:           q.Ask,
		BidSize:       int64(q.BidSize),
		AskSize:       int64(q.AskSize),
		FetchedAt:     clk.Now(),
	}
}
