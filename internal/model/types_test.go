package model

import (
	"math"
	"reflect"
	"testing"
)

func TestLabelFor(t *testing.T) {
	tests := []struct {
		compound float64
		want     Label
	}{
		{5.0, LabelPositive},
		{0.05, LabelPositive},
		{0.0499, LabelNeutral},
		{0, LabelNeutral},
		{-0.0499, LabelNeutral},
		{-0.05, LabelNegative},
		{-5.0, LabelNegative},
	}
	for _, tt := range tests {
		if got := LabelFor(tt.compound); got != tt.want {
			t.Errorf("LabelFor(%v) = %q, want %q", tt.compound, got, tt.want)
		}
	}
}

func TestTrackedEntity_Queries(t *testing.T) {
	e := TrackedEntity{Symbol: "AAPL", Aliases: []string{"Apple", "$aapl", " "}}
	want := []string{"AAPL", "$AAPL", "AAPL stock", "Apple"}
	if got := e.Queries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}
}

func TestRawItem_Text(t *testing.T) {
	r := RawItem{Title: "GME earnings", Body: ""}
	if got := r.Text(); got != "GME earnings" {
		t.Errorf("Text() = %q, want %q", got, "GME earnings")
	}
}

func TestQuote_Derived(t *testing.T) {
	q := Quote{Volume: 4_000_000, AverageVolume: 1_000_000, Bid: 100, Ask: 101}

	if got := q.VolumeRatio(); got != 4.0 {
		t.Errorf("VolumeRatio() = %v, want 4.0", got)
	}
	if got := q.VolumeChangePercent(); got != 300 {
		t.Errorf("VolumeChangePercent() = %v, want 300", got)
	}
	if got := q.BidAskImbalance(); math.Abs(got-0.01) > 1e-12 {
		t.Errorf("BidAskImbalance() = %v, want 0.01", got)
	}

	var empty Quote
	if empty.VolumeRatio() != 1 || empty.VolumeChangePercent() != 0 || empty.BidAskImbalance() != 0 {
		t.Error("empty quote should have neutral derived values")
	}
	if !empty.IsZero() {
		t.Error("IsZero() = false, want true")
	}
}
