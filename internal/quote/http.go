package quote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/model"
	"github.com/rickgao/tickersense/internal/source"
)

// DefaultQuotePath is the batch quote endpoint path.
const DefaultQuotePath = "/v7/finance/quote"

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol        string              `json:"symbol"`
	ShortName     string              `json:"shortName"`
	LongName      string              `json:"longName"`
	Price         decimal.NullDecimal `json:"regularMarketPrice"`
	PreviousClose decimal.NullDecimal `json:"regularMarketPreviousClose"`
	ChangePercent decimal.NullDecimal `json:"regularMarketChangePercent"`
	Volume        int64               `json:"regularMarketVolume"`
	AverageVolume int64               `json:"averageDailyVolume3Month"`
	Bid           decimal.NullDecimal `json:"bid"`
	Ask           decimal.NullDecimal `json:"ask"`
	BidSize       int64               `json:"bidSize"`
	AskSize       int64               `json:"askSize"`
}

// HTTPProvider reads quotes from a JSON quote endpoint.
type HTTPProvider struct {
	client source.JSONGetter
	clock  clock.Clock
	path   string
}

// NewHTTPProvider creates a provider on client. An empty path uses
// DefaultQuotePath.
func NewHTTPProvider(client source.JSONGetter, clk clock.Clock, path string) *HTTPProvider {
	if clk == nil {
		clk = clock.New()
	}
	if path == "" {
		path = DefaultQuotePath
	}
	return &HTTPProvider{client: client, clock: clk, path: path}
}

// Quote implements Provider.
func (p *HTTPProvider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	quotes, err := p.Quotes(ctx, []string{symbol})
	if err != nil {
		return model.Quote{}, err
	}
	q, ok := quotes[normalize(symbol)]
	if !ok {
		return model.Quote{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return q, nil
}

// Quotes fetches several symbols in one call. Missing symbols are absent
// from the map.
func (p *HTTPProvider) Quotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	norm := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = normalize(s); s != "" {
			norm = append(norm, s)
		}
	}
	if len(norm) == 0 {
		return map[string]model.Quote{}, nil
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(norm, ","))

	var resp quoteResponse
	if err := p.client.GetJSON(ctx, p.path, q, &resp); err != nil {
		return nil, err
	}
	if e := resp.QuoteResponse.Error; e != nil {
		return nil, fmt.Errorf("quote error %s: %s", e.Code, e.Description)
	}

	now := p.clock.Now()
	out := make(map[string]model.Quote, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		q := r.toModel(now)
		if q.Symbol == "" || q.IsZero() {
			continue
		}
		out[q.Symbol] = q
	}
	return out, nil
}

func (r quoteResult) toModel(now time.Time) model.Quote {
	price := r.Price.Decimal
	prev := r.PreviousClose.Decimal

	change := r.ChangePercent.Decimal
	if !r.ChangePercent.Valid {
		change = ChangePercent(price, prev)
	}

	name := r.ShortName
	if name == "" {
		name = r.LongName
	}

	return model.Quote{
		Symbol:        normalize(r.Symbol),
		Name:          name,
		Price:         price.InexactFloat64(),
		PreviousClose: prev.InexactFloat64(),
		ChangePercent: change.InexactFloat64(),
		Volume:        r.Volume,
		AverageVolume: r.AverageVolume,
		Bid:           r.Bid.Decimal.InexactFloat64(),
		Ask:           r.Ask.Decimal.InexactFloat64(),
		BidSize:       r.BidSize,
		AskSize:       r.AskSize,
		FetchedAt:     now,
	}
}
