// Package quote provides market snapshots for symbols.
//
// Providers:
//   - HTTPProvider: quote endpoint over a fetch.Client, batched per call
//   - FinanceProvider: the finance-go client
//   - Cached: decorator serving fresh snapshots from a cache
//
// Prices are handled as decimals while decoding so derived change
// percentages do not accumulate float error.
package quote
