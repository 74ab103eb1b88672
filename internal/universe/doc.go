// Package universe knows which symbols are valid and what they are called.
//
// A Universe is loaded from a YAML listing (symbol, company name, optional
// aliases) plus any symbols named in configuration. Membership checks are a
// set lookup; company-name lookups go through an in-memory bleve index so
// "apple" or "Advanced Micro" resolve to their tickers.
package universe
