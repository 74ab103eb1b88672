// Package sentiment scores the polarity of item texts and aggregates scores
// per entity.
//
// Single-text scoring runs a lexicon pass (valence words with negation,
// intensifier and contrast handling, normalised to [-1, 1]) and then adds
// fixed domain boosts for market slang, clamping the compound to [-5, 5].
//
// Aggregation comes in three forms:
//   - Average: unweighted mean over a batch
//   - Aggregate: recency-weighted with half-life decay, a max-age cutoff and
//     the recent-positive override that damps stale negative items
//   - Combined: a post plus its comments, comments weighted by log score
package sentiment
