package scheduler

import (
	"context"
	"sync"
	"time"
)

// RunFunc is one execution of a job.
type RunFunc func(ctx context.Context) error

// JobOption configures a job.
type JobOption func(*job)

// WithTimeout bounds each run of the job.
func WithTimeout(d time.Duration) JobOption {
	return func(j *job) { j.timeout = d }
}

// WithLastRun seeds the last run time, e.g. from persisted state.
func WithLastRun(t time.Time) JobOption {
	return func(j *job) { j.lastRun = t }
}

// JobState is a snapshot of one job.
type JobState struct {
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	Running      bool          `json:"running"`
	LastRun      time.Time     `json:"last_run"`
	NextRun      time.Time     `json:"next_run"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	Skips        int64         `json:"skips"`
}

type job struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	run      RunFunc

	mu           sync.Mutex
	running      bool
	lastRun      time.Time
	lastDuration time.Duration
	lastErr      error
	runs         int64
	failures     int64
	skips        int64
}

// tryStart moves the job from idle to running if it is due at now. A due
// job that is already running counts a skip and keeps its last run.
func (j *job) tryStart(now time.Time) (started, skipped bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if now.Sub(j.lastRun) < j.interval {
		return false, false
	}
	if j.running {
		j.skips++
		return false, true
	}
	j.running = true
	j.lastRun = now
	return true, false
}

func (j *job) finish(d time.Duration, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.running = false
	j.runs++
	j.lastDuration = d
	j.lastErr = err
	if err != nil {
		j.failures++
	}
}

func (j *job) state() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := JobState{
		Name:         j.name,
		Interval:     j.interval,
		Running:      j.running,
		LastRun:      j.lastRun,
		NextRun:      j.lastRun.Add(j.interval),
		LastDuration: j.lastDuration,
		Runs:         j.runs,
		Failures:     j.failures,
		Skips:        j.skips,
	}
	if j.lastErr != nil {
		s.LastError = j.lastErr.Error()
	}
	return s
}
