// Package database provides PostgreSQL connection pools and the schema.
//
// Tables:
//   - items: normalized posts and articles, keyed by fingerprint
//   - comments: scored social comments, keyed by comment id
//   - entity_results: latest per-symbol refresh result, keyed by symbol
package database
