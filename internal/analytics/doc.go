// Package analytics derives per-ticker and per-strike view models from the
// canonical trade set: summaries, volume profiles, expiry orderings,
// unusual-activity alerts, key price levels, a gamma-exposure estimate, and
// max pain.
//
// Every function here is pure: it takes a record slice (canonical or
// pre-filtered) plus any reference time it needs, and returns a freshly
// allocated structure that copies numbers out of the input. Nothing holds a
// live reference back into the canonical trade array and nothing mutates
// its input, so calls are re-entrant safe and trivially cacheable.
//
// Gamma exposure and max pain are deliberate simplifications carried over
// from the source dashboard: no Black-Scholes, no per-contract Greeks. Do
// not make them financially rigorous without flagging the behavior change,
// since psychology output downstream would shift.
package analytics
