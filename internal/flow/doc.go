// Package flow implements the snapshot ingestion pipeline for options-flow
// and dark-pool exports: timestamp normalization, quote-aware CSV
// tokenization, layout-detecting record parsing, and deduplicating merge.
//
// # Data Flow
//
//	CSV text → SplitLine → Parser → per-file record slices → Merger → canonical trade set
//
// Snapshot files are full-ish exports: a newer file usually repeats trades
// already present in older ones. Merger folds them newest first with a
// first-writer-wins dedup map, so the freshest occurrence of a repeated
// trade survives and the merged set stays duplicate free.
//
// # Layouts
//
// Two incompatible column layouts coexist in the corpus: a headered "clean"
// layout and a 16+ column "legacy" chat-export layout with two field
// offsets. Detection is value driven (header text, marker columns), never
// based on file naming. Each layout maps through its own field-index table
// into the one canonical TradeRecord shape.
//
// # Time
//
// Execution timestamps are free text and may be relative ("Yesterday at
// 3:55 PM"). Every function that interprets time takes the current instant
// as an explicit parameter so behavior is deterministic under test. A
// timestamp that fails to parse excludes the record from time-ordered
// operations but never aborts parsing.
package flow
