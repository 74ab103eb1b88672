package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/piquette/finance-go"
	"github.com/shopspring/decimal"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/model"
)

var now = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

func TestChangePercent(t *testing.T) {
	tests := []struct {
		price, prev string
		want        string
	}{
		{"10.5", "10", "5"},
		{"9.7", "10", "-3"},
		{"1.23", "0", "0"},
		{"0.3", "0.1", "200"},
	}
	for _, tt := range tests {
		got := ChangePercent(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.prev))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ChangePercent(%s, %s) = %s, want %s", tt.price, tt.prev, got, tt.want)
		}
	}
}

func TestSpreadPercent(t *testing.T) {
	got := SpreadPercent(decimal.RequireFromString("99.9"), decimal.RequireFromString("100.1"), decimal.NewFromInt(100))
	if !got.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("SpreadPercent() = %s, want 0.2", got)
	}
	if got := SpreadPercent(decimal.Zero, decimal.NewFromInt(1), decimal.NewFromInt(1)); !got.IsZero() {
		t.Errorf("SpreadPercent(no bid) = %s, want 0", got)
	}
}

const quotesJSON = `{
  "quoteResponse": {
    "result": [
      {"symbol": "abc", "shortName": "ABC Corp", "regularMarketPrice": 10.5, "regularMarketPreviousClose": 10,
       "regularMarketVolume": 4000000, "averageDailyVolume3Month": 1000000,
       "bid": 10.45, "ask": 10.55, "bidSize": 8, "askSize": 2},
      {"symbol": "XYZ", "longName": "XYZ Holdings", "regularMarketPrice": 20, "regularMarketPreviousClose": 25,
       "regularMarketChangePercent": -19.5, "bid": null, "ask": null},
      {"symbol": "DEAD", "regularMarketPrice": null}
    ],
    "error": null
  }
}`

func TestHTTPProvider_Quotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultQuotePath {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "ABC,XYZ,DEAD" {
			t.Errorf("symbols = %q, want ABC,XYZ,DEAD", got)
		}
		w.Write([]byte(quotesJSON))
	}))
	defer srv.Close()

	client := fetch.NewClient("quotes", srv.URL, fetch.WithHTTPClient(srv.Client()))
	p := NewHTTPProvider(client, clock.NewManual(now), "")

	quotes, err := p.Quotes(context.Background(), []string{"abc", " xyz", "DEAD", ""})
	if err != nil {
		t.Fatalf("Quotes() error = %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("len(quotes) = %d, want 2", len(quotes))
	}

	abc := quotes["ABC"]
	if abc.Name != "ABC Corp" || abc.Price != 10.5 || abc.ChangePercent != 5 {
		t.Errorf("ABC = %+v", abc)
	}
	if abc.VolumeRatio() != 4 {
		t.Errorf("VolumeRatio() = %v, want 4", abc.VolumeRatio())
	}
	if abc.BidSize != 8 || abc.Ask != 10.55 || !abc.FetchedAt.Equal(now) {
		t.Errorf("ABC depth = %+v", abc)
	}

	xyz := quotes["XYZ"]
	if xyz.ChangePercent != -19.5 {
		t.Errorf("XYZ ChangePercent = %v, want reported -19.5", xyz.ChangePercent)
	}
	if xyz.Name != "XYZ Holdings" || xyz.Bid != 0 {
		t.Errorf("XYZ = %+v", xyz)
	}
}

func TestHTTPProvider_QuoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	client := fetch.NewClient("quotes", srv.URL, fetch.WithHTTPClient(srv.Client()))
	p := NewHTTPProvider(client, clock.NewManual(now), "")

	if _, err := p.Quote(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Quote() error = %v, want ErrNotFound", err)
	}
}

func TestFinanceProvider(t *testing.T) {
	p := &FinanceProvider{
		clock: clock.NewManual(now),
		get: func(symbol string) (*finance.Quote, error) {
			switch symbol {
			case "ABC":
				return &finance.Quote{
					Symbol:                     "ABC",
					ShortName:                  "ABC Corp",
					RegularMarketPrice:         9.7,
					RegularMarketPreviousClose: 10,
					RegularMarketVolume:        500,
					AverageDailyVolume3Month:   1000,
					Bid:                        9.6,
					Ask:                        9.8,
				}, nil
			case "ERR":
				return nil, errors.New("upstream down")
			}
			return nil, nil
		},
	}

	q, err := p.Quote(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if q.ChangePercent != -3 {
		t.Errorf("ChangePercent = %v, want derived -3", q.ChangePercent)
	}
	if q.VolumeRatio() != 0.5 || !q.FetchedAt.Equal(now) {
		t.Errorf("quote = %+v", q)
	}

	if _, err := p.Quote(context.Background(), "ERR"); err == nil {
		t.Error("Quote(ERR) error = nil")
	}
	if _, err := p.Quote(context.Background(), "NONE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Quote(NONE) error = %v, want ErrNotFound", err)
	}
}

type memStore struct {
	quotes  map[string]model.Quote
	readErr error
	sets    int
}

func (m *memStore) GetQuote(_ context.Context, symbol string) (model.Quote, bool, error) {
	if m.readErr != nil {
		return model.Quote{}, false, m.readErr
	}
	q, ok := m.quotes[symbol]
	return q, ok, nil
}

func (m *memStore) SetQuote(_ context.Context, q model.Quote, _ time.Duration) error {
	m.sets++
	m.quotes[q.Symbol] = q
	return nil
}

type countingProvider struct{ calls int }

func (c *countingProvider) Quote(_ context.Context, symbol string) (model.Quote, error) {
	c.calls++
	return model.Quote{Symbol: symbol, Price: 1}, nil
}

func TestCached(t *testing.T) {
	store := &memStore{quotes: map[string]model.Quote{}}
	next := &countingProvider{}
	c := NewCached(next, store, time.Minute, nil)

	for i := 0; i < 3; i++ {
		if _, err := c.Quote(context.Background(), "abc"); err != nil {
			t.Fatalf("Quote() error = %v", err)
		}
	}
	if next.calls != 1 || store.sets != 1 {
		t.Errorf("provider calls = %d, sets = %d, want 1 and 1", next.calls, store.sets)
	}

	store.readErr = errors.New("redis down")
	if _, err := c.Quote(context.Background(), "abc"); err != nil {
		t.Errorf("Quote() with broken cache error = %v, want nil", err)
	}
	if next.calls != 2 {
		t.Errorf("provider calls = %d, want 2", next.calls)
	}
}
