// Package services holds the application service layer. DataService owns
// the canonical merged trade set: it discovers snapshot exports on disk,
// parses and deduplicates them, and serves every derived aggregate the
// HTTP layer exposes. Aggregates are cached against content fingerprints
// so repeated requests between reloads never recompute.
package services
