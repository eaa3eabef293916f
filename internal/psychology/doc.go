// Package psychology derives rule-based sentiment reads from merged trade
// records.
//
// Every bucket granularity (30-minute session slots, trading days, ISO
// weeks) shares one additive metrics shape and one classifier. The
// classifier is a pure function of a bucket's aggregates against a
// per-granularity threshold set, so the same flow never reads differently
// depending on when it was classified.
//
// # Time Bucketing
//
// Hourly analysis covers the 9:30-16:15 exchange session only; trades
// outside that window are excluded here but still count in daily and weekly
// views. Daily analysis walks back exactly five trading days from the most
// recent weekday present in the data. Weekly analysis groups by ISO week
// and adds a week-over-week trend plus a modal-sentiment confidence.
package psychology
