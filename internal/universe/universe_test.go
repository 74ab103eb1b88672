package universe

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testListings() []Listing {
	return []Listing{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "AMD", Name: "Advanced Micro Devices, Inc.", Aliases: []string{"AMD stock"}},
		{Symbol: "$msft", Name: "Microsoft Corporation"},
		{Symbol: "KO", Name: "The Coca-Cola Co"},
		{Symbol: "ZZZ"},
		{Symbol: " "},
	}
}

func TestUniverse_Membership(t *testing.T) {
	u, err := New(testListings())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer u.Close()

	if u.Len() != 5 {
		t.Errorf("Len() = %d, want 5", u.Len())
	}
	for _, s := range []string{"AAPL", "aapl", "MSFT", "ZZZ"} {
		if !u.Contains(s) {
			t.Errorf("Contains(%q) = false", s)
		}
	}
	if u.Contains("TSLA") {
		t.Error("Contains(TSLA) = true")
	}

	want := []string{"AAPL", "AMD", "KO", "MSFT", "ZZZ"}
	if got := u.Symbols(); !reflect.DeepEqual(got, want) {
		t.Errorf("Symbols() = %v, want %v", got, want)
	}
}

func TestUniverse_Aliases(t *testing.T) {
	u, _ := New(testListings())
	defer u.Close()

	tests := []struct {
		symbol string
		want   []string
	}{
		{"AAPL", []string{"Apple"}},
		{"AMD", []string{"AMD stock", "Advanced Micro Devices"}},
		{"MSFT", []string{"Microsoft"}},
		{"ZZZ", nil},
		{"NONE", nil},
	}
	for _, tt := range tests {
		if got := u.Aliases(tt.symbol); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Aliases(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestUniverse_Lookup(t *testing.T) {
	u, _ := New(testListings())
	defer u.Close()
	ctx := context.Background()

	tests := []struct {
		text string
		want []string
	}{
		{"apple", []string{"AAPL"}},
		{"Advanced Micro", []string{"AMD"}},
		{"coca-cola", []string{"KO"}},
		{"banana", []string{}},
	}
	for _, tt := range tests {
		got, err := u.Lookup(ctx, tt.text, 5)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", tt.text, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Lookup(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestUniverse_Resolve(t *testing.T) {
	u, _ := New(testListings())
	defer u.Close()
	ctx := context.Background()

	tests := []struct {
		phrase string
		want   string
		ok     bool
	}{
		{"Apple", "AAPL", true},
		{"apple inc", "AAPL", true},
		{"Advanced Micro Devices", "AMD", true},
		{"Advanced Micro", "", false},
		{"Coca-Cola", "KO", true},
		{"Microsoft Corporation", "MSFT", true},
		{"The", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok, err := u.Resolve(ctx, tt.phrase)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", tt.phrase, err)
		}
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v, want %q, %v", tt.phrase, got, ok, tt.want, tt.ok)
		}
	}
}

func TestShortName(t *testing.T) {
	tests := map[string]string{
		"Apple Inc.":                   "Apple",
		"Advanced Micro Devices, Inc.": "Advanced Micro Devices",
		"Acme Holdings Group Ltd":      "Acme",
		"Inc":                          "Inc",
		"Tesla":                        "Tesla",
	}
	for in, want := range tests {
		if got := ShortName(in); got != want {
			t.Errorf("ShortName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	data := []byte(`
- symbol: AAPL
  name: Apple Inc.
- symbol: NVDA
  name: NVIDIA Corporation
  aliases: [Nvidia]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	u, err := Load(path, []string{"SPY"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer u.Close()

	if got := u.Symbols(); !reflect.DeepEqual(got, []string{"AAPL", "NVDA", "SPY"}) {
		t.Errorf("Symbols() = %v", got)
	}
	if got := u.Aliases("NVDA"); !reflect.DeepEqual(got, []string{"Nvidia"}) {
		t.Errorf("Aliases(NVDA) = %v, want [Nvidia]", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("Load(missing) error = nil")
	}
}
