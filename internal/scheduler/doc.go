// Package scheduler runs recurring jobs on an injectable clock.
//
// The Scheduler:
//   - Checks every job on each tick and starts the ones whose interval has elapsed
//   - Runs jobs on their own goroutines so a slow run never delays the next tick
//   - Never starts a job that is still running (the tick is skipped, not queued)
//   - Computes the next run from last run + interval on demand
//   - Seeds last run at now - interval so new jobs run on the first tick
package scheduler
