// Package fetch provides the rate-limited HTTP client shared by every
// external source (social search, news search, quotes).
//
// Each Client is bounded by:
//   - a concurrency semaphore (at most MaxConcurrent calls in flight)
//   - a sliding request-count window (at most RateLimit attempts per Window)
//   - a per-attempt hard timeout
//
// Transient failures are retried with jittered exponential backoff. A quota
// signal from the source trips a sticky flag that short-circuits further calls
// for the rest of the caller's Cycle. Each orchestrator run starts its own
// Cycle with StartCycle, so runs sharing a Client keep separate flags.
package fetch
