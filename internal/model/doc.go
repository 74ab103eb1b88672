// Package model defines shared data types used across the ingestion pipeline.
//
// Conventions:
//   - Symbols: upper-case tickers without the "$" marker
//   - Timestamps: time.Time in UTC
//   - Sentiment compound: float64 in [-5, 5]; label thresholds at ±0.05
//   - Items are keyed by their content fingerprint (see internal/dedup)
package model
