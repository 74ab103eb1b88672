// Package metrics exposes Prometheus metrics and a health endpoint.
//
// Key metrics:
//   - HTTP fetch counters per source (requests, retries, rate limits)
//   - Crawl and refresh totals (saved, duplicates, flagged entities)
//   - Job run durations and failures
//   - Writer inserts, conflicts and errors
package metrics
