// Package exporter writes derived view models to disk.
//
// Ticker summaries export to CSV (with a UTF-8 BOM so Excel opens them
// cleanly), indented JSON, and a single-sheet XLSX workbook. The full
// merged record set streams to CSV row by row so large datasets never
// materialize a second time in memory.
package exporter
