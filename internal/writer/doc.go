// Package writer persists collected data to PostgreSQL.
//
// Writers:
//   - Comment writer: batches scored comments, insert-only
//   - Result writer: upserts the latest refresh result per symbol
//
// Items are committed by the dedup ledger, not here. Duplicate inserts are
// counted as conflicts rather than errors.
package writer
