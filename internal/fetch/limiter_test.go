package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
)

func TestLimiter_Reserve(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	clk := clock.NewManual(start)
	l := NewLimiter(2, time.Minute, clk)

	if _, ok := l.reserve(); !ok {
		t.Fatal("first reserve should succeed")
	}
	clk.Advance(20 * time.Second)
	if _, ok := l.reserve(); !ok {
		t.Fatal("second reserve should succeed")
	}

	wait, ok := l.reserve()
	if ok {
		t.Fatal("third reserve should be throttled")
	}
	if wait != 40*time.Second {
		t.Errorf("wait = %v, want %v", wait, 40*time.Second)
	}

	clk.Advance(40 * time.Second)
	if _, ok := l.reserve(); !ok {
		t.Error("reserve after oldest aged out should succeed")
	}
	if got := l.InWindow(); got != 2 {
		t.Errorf("InWindow() = %d, want 2", got)
	}
}

func TestLimiter_WaitUnblocksOnManualClock(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	l := NewLimiter(1, time.Minute, clk)

	if _, err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	done := make(chan time.Duration, 1)
	go func() {
		waited, _ := l.Wait(context.Background())
		done <- waited
	}()

	deadline := time.Now().Add(time.Second)
	for clk.Waiters() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("second Wait never blocked")
		}
		time.Sleep(time.Millisecond)
	}
	clk.Advance(time.Minute)

	select {
	case waited := <-done:
		if waited != time.Minute {
			t.Errorf("waited = %v, want %v", waited, time.Minute)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after window elapsed")
	}
}

func TestLimiter_ElapsedRespectsQuota(t *testing.T) {
	const (
		limit  = 5
		window = 100 * time.Millisecond
		calls  = 11
	)
	l := NewLimiter(limit, window, nil)

	start := time.Now()
	for i := 0; i < calls; i++ {
		if _, err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	elapsed := time.Since(start)

	// 11 calls at 5 per window need at least two full windows.
	minimum := time.Duration((calls-1)/limit) * window
	if elapsed < minimum {
		t.Errorf("elapsed = %v, want >= %v", elapsed, minimum)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	l := NewLimiter(1, time.Hour, clk)
	l.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait() error = %v, want %v", err, context.Canceled)
	}
}
