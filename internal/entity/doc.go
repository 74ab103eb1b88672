// Package entity tracks the tickers the pipeline monitors.
//
// The Registry holds every known TrackedEntity with its last successful
// refresh time. Entities are discovered from the symbol universe or from
// symbol extraction during social crawls, and are never removed: symbols
// that leave the universe are marked stale and drop out of refresh
// selection. Stale selection returns entities whose last refresh is older
// than a configured interval, oldest first.
package entity
