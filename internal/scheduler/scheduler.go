package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
)

// ErrDuplicateJob is returned when a job name is registered twice.
var ErrDuplicateJob = errors.New("duplicate job")

// RunHook observes every finished run.
type RunHook func(name string, d time.Duration, err error)

// Config holds scheduler configuration.
type Config struct {
	Tick time.Duration // How often due jobs are checked (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Tick: 10 * time.Second}
}

// Scheduler starts due jobs on every tick.
type Scheduler struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
	hook   RunHook

	mu   sync.Mutex
	jobs []*job

	// runCtx is detached from Stop: stopping prevents new runs but does not
	// cancel those in flight.
	runCtx context.Context
	cancel context.CancelFunc
	loop   sync.WaitGroup
	runs   sync.WaitGroup
}

// New creates a scheduler.
func New(cfg Config, clk clock.Clock, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultConfig().Tick
	}
	return &Scheduler{
		cfg:    cfg,
		clock:  clk,
		logger: logger.With("component", "scheduler"),
		runCtx: context.Background(),
	}
}

// OnRun installs a hook called after every run.
func (s *Scheduler) OnRun(h RunHook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// Add registers a job. Unless seeded with WithLastRun, its last run is
// now - interval so it is due on the first tick.
func (s *Scheduler) Add(name string, interval time.Duration, run RunFunc, opts ...JobOption) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
		}
	}

	j := &job{
		name:     name,
		interval: interval,
		run:      run,
		lastRun:  s.clock.Now().Add(-interval),
	}
	for _, opt := range opts {
		opt(j)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start begins the tick loop. The first check happens immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	var loopCtx context.Context
	loopCtx, s.cancel = context.WithCancel(ctx)
	s.runCtx = context.WithoutCancel(ctx)

	s.loop.Add(1)
	go s.run(loopCtx)

	s.logger.Info("scheduler started", "tick", s.cfg.Tick, "jobs", len(s.States()))
	return nil
}

// Stop ends the tick loop and waits for in-flight runs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.loop.Wait()
		s.runs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with runs in flight")
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.loop.Done()

	ticker := s.clock.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	s.Tick()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.Tick()
		}
	}
}

// Tick starts every due, idle job and returns the names started. It never
// blocks on a run.
func (s *Scheduler) Tick() []string {
	now := s.clock.Now()

	s.mu.Lock()
	jobs := append([]*job(nil), s.jobs...)
	s.mu.Unlock()

	var started []string
	for _, j := range jobs {
		ok, skipped := j.tryStart(now)
		if skipped {
			s.logger.Debug("job still running, tick skipped", "job", j.name)
		}
		if !ok {
			continue
		}
		started = append(started, j.name)
		s.runs.Add(1)
		go s.execute(j)
	}
	return started
}

func (s *Scheduler) execute(j *job) {
	defer s.runs.Done()

	ctx := s.runCtx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := s.clock.Now()
	err := s.safeRun(ctx, j)
	d := s.clock.Now().Sub(start)
	j.finish(d, err)

	if err != nil {
		s.logger.Error("job failed", "job", j.name, "duration", d, "error", err)
	} else {
		s.logger.Debug("job finished", "job", j.name, "duration", d)
	}

	s.mu.Lock()
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook(j.name, d, err)
	}
}

// safeRun converts a panic in a run into an error so one bad cycle cannot
// take the process down.
func (s *Scheduler) safeRun(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.run(ctx)
}

// States returns a snapshot of every job.
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	jobs := append([]*job(nil), s.jobs...)
	s.mu.Unlock()

	out := make([]JobState, len(jobs))
	for i, j := range jobs {
		out[i] = j.state()
	}
	return out
}

// State returns the snapshot of one job.
func (s *Scheduler) State(name string) (JobState, bool) {
	for _, st := range s.States() {
		if st.Name == name {
			return st, true
		}
	}
	return JobState{}, false
}
