// Package market cross-checks aggregated sentiment against observed market
// behaviour.
//
// Confirm scores how far price, volume, order-book imbalance and price
// velocity corroborate a sentiment value and labels the result.
// Pressure derives a 0-100 buy pressure from a quote, and Validate turns a
// per-source sentiment plus that pressure into a trust decision.
package market
