// Package dedup decides whether a fetched item has been seen before.
//
// Every item is keyed by a fingerprint: an MD5 over its title, canonical
// URL (or source-native id) and creation time. A Ledger answers IsNew and
// persists through Commit, which inserts only when the fingerprint is absent
// so concurrent commits of the same item converge to one record.
//
// Ledgers also expose a per-source cursor (newest committed creation time).
// NextWindow turns it into the lower bound of the next fetch:
//   - no cursor: look back a fixed initial window
//   - recent cursor: cursor minus an overlap buffer
//   - stale cursor (the process was down): backfill with raised caps, bounded
//     by a maximum look-back
package dedup
