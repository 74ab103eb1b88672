package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rickgao/tickersense/internal/universe"
)

type symbolSet map[string]bool

func (s symbolSet) Contains(sym string) bool { return s[sym] }

func TestExtractor_Extract(t *testing.T) {
	valid := symbolSet{"TSLA": true, "AAPL": true, "NVDA": true, "AMD": true, "MSFT": true, "GME": true, "IBM": true}
	ex := NewExtractor(valid, nil)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"dollar lowercase", "$tsla to the moon", []string{"TSLA"}},
		{"context word before", "buying AAPL today", []string{"AAPL"}},
		{"verb after", "NVDA is ripping", []string{"NVDA"}},
		{"brackets", "Apple (AAPL) beat estimates", []string{"AAPL"}},
		{"label", "ticker: AMD", []string{"AMD"}},
		{"bare with market keyword", "Thinking about MSFT for my portfolio", []string{"MSFT"}},
		{"bare without keyword", "I met IBM folks yesterday", []string{}},
		{"lowercase bare word", "buy aapl now", []string{}},
		{"not in universe", "$ZZZZ squeeze incoming", []string{}},
		{"ignored word", "buy USD now", []string{}},
		{"sorted and unique", "$TSLA and $AAPL, also TSLA is up", []string{"AAPL", "TSLA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(context.Background(), tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractor_NilUniverseAcceptsCandidates(t *testing.T) {
	ex := NewExtractor(nil, []string{"yolo"})

	got := ex.Extract(context.Background(), "$YOLO $PLTR")
	want := []string{"PLTR"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractor_CompanyNames(t *testing.T) {
	u, err := universe.New([]universe.Listing{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "AMD", Name: "Advanced Micro Devices, Inc."},
		{Symbol: "KO", Name: "The Coca-Cola Co"},
		{Symbol: "APLE", Name: "Apple Hospitality REIT, Inc."},
	})
	if err != nil {
		t.Fatalf("universe.New: %v", err)
	}
	defer u.Close()
	ex := NewExtractor(u, nil, WithNameIndex(u))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single word name", "Apple crushed earnings again", []string{"AAPL"}},
		{"multi word name", "Loading up on Advanced Micro Devices before the event", []string{"AMD"}},
		{"leading article and suffix", "Coca-Cola raised its dividend", []string{"KO"}},
		{"name and symbol", "Apple and $AMD both green", []string{"AAPL", "AMD"}},
		{"partial name", "Advanced chips are hot", []string{}},
		{"lowercase name", "ate an apple today", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(context.Background(), tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

type failingNames struct{ calls int }

func (f *failingNames) Resolve(context.Context, string) (string, bool, error) {
	f.calls++
	return "", false, errors.New("index closed")
}

func TestExtractor_NameIndexErrorKeepsSymbols(t *testing.T) {
	names := &failingNames{}
	ex := NewExtractor(nil, nil, WithNameIndex(names))

	got := ex.Extract(context.Background(), "Apple Tesla $NVDA")
	if want := []string{"NVDA"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
	if names.calls != 1 {
		t.Errorf("Resolve calls = %d, want 1", names.calls)
	}
}
