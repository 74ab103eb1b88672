package cache

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/model"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestHistoryMember(t *testing.T) {
	at := now.Add(1500 * time.Millisecond)
	m := historyMember(at, -0.375)
	if m != "1709294401500:-0.375" {
		t.Errorf("historyMember() = %q", m)
	}

	gotAt, gotV, err := parseHistoryMember(m)
	if err != nil {
		t.Fatalf("parseHistoryMember() error = %v", err)
	}
	if !gotAt.Equal(at) || gotV != -0.375 {
		t.Errorf("parseHistoryMember() = %v, %v", gotAt, gotV)
	}

	for _, bad := range []string{"", "abc", "12:", "x:1"} {
		if _, _, err := parseHistoryMember(bad); err == nil {
			t.Errorf("parseHistoryMember(%q) error = nil", bad)
		}
	}
}

func TestMemory_QuoteTTL(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(now)
	m := NewMemory(clk)

	m.SetQuote(ctx, model.Quote{Symbol: "ABC", Price: 10}, time.Minute)
	q, ok, _ := m.GetQuote(ctx, "ABC")
	if !ok || q.Price != 10 {
		t.Errorf("GetQuote() = %+v, %v", q, ok)
	}

	clk.Advance(time.Minute)
	if _, ok, _ := m.GetQuote(ctx, "ABC"); ok {
		t.Error("GetQuote() hit after TTL")
	}
}

func TestMemory_Velocity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(clock.NewManual(now))

	v, err := Velocity(ctx, m, "ABC", now, 0.4)
	if err != nil || v != 0 {
		t.Errorf("Velocity() without history = %v, %v, want 0", v, err)
	}

	m.RecordSentiment(ctx, "ABC", now.Add(-2*time.Hour), 0.1)
	m.RecordSentiment(ctx, "ABC", now.Add(-time.Hour), 0.25)
	m.RecordSentiment(ctx, "ABC", now, 0.9)

	v, _ = Velocity(ctx, m, "ABC", now, 0.4)
	if math.Abs(v-0.15) > 1e-9 {
		t.Errorf("Velocity() = %v, want 0.15", v)
	}

	prev, ok, _ := m.PreviousSentiment(ctx, "ABC", now.Add(-90*time.Minute))
	if !ok || prev != 0.1 {
		t.Errorf("PreviousSentiment() = %v, %v, want 0.1", prev, ok)
	}
}
