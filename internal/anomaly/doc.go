// Package anomaly flags coordinated or manipulated sentiment around a symbol.
//
// A Detector evaluates six independent signals over an entity's recent items
// and its latest quote:
//   - volume spike against average volume
//   - low-engagement items carrying pump vocabulary or urgency patterns
//   - price moving against strongly polarised sentiment
//   - bursts of items inside a rolling window
//   - bot-like authors or near-zero scores
//   - density of pump vocabulary
//
// Each triggered signal contributes a graded confidence; the composite risk
// score is their weighted sum capped at 100. Trust (100 - risk) can damp the
// sentiment taken from the same items.
package anomaly
