package scheduler

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/entity"
	"github.com/rickgao/tickersense/internal/model"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func waitIdle(t *testing.T, s *Scheduler, name string) JobState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, ok := s.State(name)
		if !ok {
			t.Fatalf("job %s not registered", name)
		}
		if !st.Running {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s still running", name)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestScheduler_StaleEntitySelectedOnTick(t *testing.T) {
	clk := clock.NewManual(t0)
	reg := entity.NewRegistry(entity.DefaultConfig(), nil, nil, clk, nil)
	reg.Discover("AAPL", "MSFT")
	reg.MarkRefreshed("AAPL", t0.Add(-45*time.Minute))
	reg.MarkRefreshed("MSFT", t0.Add(-10*time.Minute))

	interval := 30 * time.Minute
	release := make(chan struct{})
	selected := make(chan []model.TrackedEntity, 1)

	s := New(Config{Tick: time.Minute}, clk, nil)
	lastRun := t0.Add(-45 * time.Minute)
	err := s.Add("refresh", interval, func(ctx context.Context) error {
		selected <- reg.Stale(interval, 0)
		<-release
		return nil
	}, WithLastRun(lastRun))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got := s.Tick(); !reflect.DeepEqual(got, []string{"refresh"}) {
		t.Fatalf("Tick() = %v, want [refresh]", got)
	}

	var picked []model.TrackedEntity
	select {
	case picked = <-selected:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	if len(picked) != 1 || picked[0].Symbol != "AAPL" {
		t.Errorf("selected = %v, want only AAPL", picked)
	}

	running, _ := s.State("refresh")
	if !running.Running {
		t.Fatal("Running = false, want true while in flight")
	}
	if !running.LastRun.Equal(t0) {
		t.Errorf("LastRun = %v, want %v", running.LastRun, t0)
	}

	// A tick while the run is still in flight is a no-op.
	clk.Advance(interval + time.Minute)
	if got := s.Tick(); len(got) != 0 {
		t.Errorf("Tick() while running = %v, want none", got)
	}
	during, _ := s.State("refresh")
	if !during.LastRun.Equal(t0) {
		t.Errorf("LastRun after skipped tick = %v, want %v", during.LastRun, t0)
	}
	if during.Skips != 1 {
		t.Errorf("Skips = %d, want 1", during.Skips)
	}

	close(release)
	st := waitIdle(t, s, "refresh")
	if st.Runs != 1 {
		t.Errorf("Runs = %d, want 1", st.Runs)
	}
}

func TestScheduler_NewJobRunsOnFirstTick(t *testing.T) {
	clk := clock.NewManual(t0)
	s := New(Config{Tick: time.Second}, clk, nil)

	var mu sync.Mutex
	calls := 0
	if err := s.Add("social", 45*time.Second, func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	st, _ := s.State("social")
	if want := t0; !st.NextRun.Equal(want) {
		t.Errorf("NextRun = %v, want %v", st.NextRun, want)
	}

	if got := s.Tick(); len(got) != 1 {
		t.Fatalf("first Tick() = %v, want one start", got)
	}
	waitIdle(t, s, "social")

	clk.Advance(30 * time.Second)
	if got := s.Tick(); len(got) != 0 {
		t.Errorf("Tick() before interval = %v, want none", got)
	}

	clk.Advance(15 * time.Second)
	if got := s.Tick(); len(got) != 1 {
		t.Errorf("Tick() at interval = %v, want one start", got)
	}
	st = waitIdle(t, s, "social")

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if st.Skips != 0 {
		t.Errorf("Skips = %d, want 0", st.Skips)
	}
}

func TestScheduler_NextRunIsLive(t *testing.T) {
	clk := clock.NewManual(t0)
	s := New(Config{}, clk, nil)
	if err := s.Add("refresh", 30*time.Minute, func(context.Context) error { return nil }, WithLastRun(t0)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	st, _ := s.State("refresh")
	if want := t0.Add(30 * time.Minute); !st.NextRun.Equal(want) {
		t.Errorf("NextRun = %v, want %v", st.NextRun, want)
	}

	// Falling far behind leaves NextRun in the past; the next tick catches up once.
	clk.Advance(3 * time.Hour)
	if got := s.Tick(); len(got) != 1 {
		t.Fatalf("Tick() = %v, want one start", got)
	}
	st = waitIdle(t, s, "refresh")
	if want := t0.Add(3*time.Hour + 30*time.Minute); !st.NextRun.Equal(want) {
		t.Errorf("NextRun = %v, want %v", st.NextRun, want)
	}
}

func TestScheduler_FailuresAndPanicsAreContained(t *testing.T) {
	clk := clock.NewManual(t0)
	s := New(Config{}, clk, nil)

	var hookMu sync.Mutex
	var hooked []string
	s.OnRun(func(name string, _ time.Duration, err error) {
		hookMu.Lock()
		defer hookMu.Unlock()
		if err != nil {
			hooked = append(hooked, name)
		}
	})

	boom := errors.New("boom")
	if err := s.Add("failing", time.Minute, func(context.Context) error { return boom }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("panicking", time.Minute, func(context.Context) error { panic("bad cycle") }); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got := s.Tick(); len(got) != 2 {
		t.Fatalf("Tick() = %v, want two starts", got)
	}

	for _, name := range []string{"failing", "panicking"} {
		st := waitIdle(t, s, name)
		if st.Failures != 1 {
			t.Errorf("%s Failures = %d, want 1", name, st.Failures)
		}
		if st.LastError == "" {
			t.Errorf("%s LastError is empty", name)
		}
	}

	hookMu.Lock()
	defer hookMu.Unlock()
	if len(hooked) != 2 {
		t.Errorf("hook saw %d failures, want 2", len(hooked))
	}
}

func TestScheduler_AddRejectsDuplicatesAndBadIntervals(t *testing.T) {
	s := New(Config{}, clock.NewManual(t0), nil)
	noop := func(context.Context) error { return nil }

	if err := s.Add("job", time.Minute, noop); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("job", time.Minute, noop); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("duplicate Add error = %v, want ErrDuplicateJob", err)
	}
	if err := s.Add("zero", 0, noop); err == nil {
		t.Error("Add with zero interval succeeded")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	clk := clock.NewManual(t0)
	s := New(Config{Tick: time.Second}, clk, nil)

	ran := make(chan struct{}, 4)
	if err := s.Add("job", time.Minute, func(context.Context) error {
		ran <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
