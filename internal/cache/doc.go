// Package cache keeps short-lived per-symbol state outside the database.
//
// Two kinds of data are cached:
//   - quote snapshots, with a TTL, so a refresh cycle does not re-fetch a
//     quote another component just read
//   - sentiment history, a time-scored sorted set per symbol, from which the
//     previous raw sentiment is read to compute velocity
//
// RedisStore backs both with go-redis; Memory is the in-process fallback
// used when no Redis address is configured.
package cache
