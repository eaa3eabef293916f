package flow

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Merger combines records from overlapping snapshot exports into one
// canonical, duplicate-free trade set. Newer snapshots routinely re-export
// trades already present in older ones; the newest occurrence wins.
type Merger struct {
	parser *Parser
	logger *slog.Logger
}

// NewMerger creates a merger. A nil logger falls back to slog.Default.
func NewMerger(parser *Parser, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = NewParser(logger)
	}
	return &Merger{parser: parser, logger: logger.With(slog.String("component", "merger"))}
}

// dedupKey identifies a trade across snapshots. sourceFile and openInterest
// are deliberately excluded: both legitimately drift between re-exports of
// the same trade. Two genuinely distinct trades sharing every keyed field
// within the displayed timestamp granularity will collapse to one; that
// matches the upstream export's behavior.
func dedupKey(r TradeRecord) string {
	return fmt.Sprintf("%s|%g|%s|%s|%d|%s|%s",
		r.Ticker, r.Strike, r.Expiry, r.OptionType, r.Volume, r.Premium, r.Timestamp)
}

func darkPoolKey(r DarkPoolRecord) string {
	return fmt.Sprintf("%s|%d|%g|%s|%s", r.Ticker, r.Quantity, r.Price, r.TotalValue, r.Timestamp)
}

// Merge parses every snapshot and folds the records into a canonical set.
// Files are processed newest first and the first writer wins per dedup key,
// so the freshest occurrence of a repeated trade survives. The result is
// ordered by parsed execution timestamp, newest first, with unparseable
// timestamps after all parseable ones.
func (m *Merger) Merge(snapshots []Snapshot, now time.Time) MergeResult {
	ordered := make([]Snapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})

	seen := make(map[string]struct{})
	var records []TradeRecord
	info := MergedDataInfo{TotalFiles: len(ordered)}

	for _, snap := range ordered {
		parsed := m.parser.ParseRecords(snap.CSVText, snap.Filename, now)
		info.TotalRecords += len(parsed)
		info.Files = append(info.Files, FileInfo{
			Filename:    snap.Filename,
			RecordCount: len(parsed),
			Timestamp:   snap.Timestamp,
		})
		for _, r := range parsed {
			key := dedupKey(r)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			records = append(records, r)
		}
	}

	sortRecordsByTimestampDesc(records, now)
	info.DateRange = dateRangeOf(info.Files)

	m.logger.Info("merged snapshots",
		slog.Int("files", info.TotalFiles),
		slog.Int("parsed_records", info.TotalRecords),
		slog.Int("unique_records", len(records)))

	return MergeResult{Records: records, Info: info}
}

// MergeDarkPool is the dark-pool counterpart of Merge, with the same
// newest-first, first-writer-wins discipline.
func (m *Merger) MergeDarkPool(snapshots []Snapshot, now time.Time) DarkPoolMergeResult {
	ordered := make([]Snapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})

	seen := make(map[string]struct{})
	var records []DarkPoolRecord
	info := MergedDataInfo{TotalFiles: len(ordered)}

	for _, snap := range ordered {
		parsed := m.parser.ParseDarkPoolRecords(snap.CSVText, snap.Filename)
		info.TotalRecords += len(parsed)
		info.Files = append(info.Files, FileInfo{
			Filename:    snap.Filename,
			RecordCount: len(parsed),
			Timestamp:   snap.Timestamp,
		})
		for _, r := range parsed {
			key := darkPoolKey(r)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			records = append(records, r)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		ti, iok := ParseTimestamp(records[i].Timestamp, now)
		tj, jok := ParseTimestamp(records[j].Timestamp, now)
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ti.After(tj)
	})
	info.DateRange = dateRangeOf(info.Files)

	return DarkPoolMergeResult{Records: records, Info: info}
}

// sortRecordsByTimestampDesc orders records newest first by parsed
// execution time. Records without a parseable timestamp keep their relative
// order after every parseable one.
func sortRecordsByTimestampDesc(records []TradeRecord, now time.Time) {
	type keyed struct {
		at time.Time
		ok bool
	}
	keys := make([]keyed, len(records))
	for i, r := range records {
		at, ok := ParseTimestamp(r.Timestamp, now)
		keys[i] = keyed{at: at, ok: ok}
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		if !ka.ok {
			return false
		}
		return ka.at.After(kb.at)
	})
	reordered := make([]TradeRecord, len(records))
	for i, j := range idx {
		reordered[i] = records[j]
	}
	copy(records, reordered)
}

// dateRangeOf spans the per-file timestamps of the whole input set, not
// just the surviving records.
func dateRangeOf(files []FileInfo) DateRange {
	var dr DateRange
	for _, f := range files {
		if f.Timestamp.IsZero() {
			continue
		}
		if dr.Earliest.IsZero() || f.Timestamp.Before(dr.Earliest) {
			dr.Earliest = f.Timestamp
		}
		if dr.Latest.IsZero() || f.Timestamp.After(dr.Latest) {
			dr.Latest = f.Timestamp
		}
	}
	return dr
}
