package flow

import (
	"time"
)

// OptionType identifies the side of an options contract.
type OptionType string

const (
	// Call is a call option contract.
	Call OptionType = "Call"
	// Put is a put option contract.
	Put OptionType = "Put"
)

// Valid reports whether the option type is one of the recognized values.
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// TradeRecord is one options trade as extracted from a snapshot export.
// Timestamp keeps the source's free-text execution time; callers that need a
// comparable instant go through ParseTimestamp and must tolerate failure.
type TradeRecord struct {
	Ticker       string     `json:"ticker"`
	Strike       float64    `json:"strike"`
	Expiry       string     `json:"expiry"`
	OptionType   OptionType `json:"option_type"`
	Volume       int64      `json:"volume"`
	Premium      string     `json:"premium"`
	OpenInterest int64      `json:"open_interest"`
	BidAskSpread float64    `json:"bid_ask_spread,omitempty"`
	Timestamp    string     `json:"timestamp"`
	SweepType    string     `json:"sweep_type,omitempty"`
	SourceFile   string     `json:"source_file,omitempty"`
}

// DarkPoolRecord is one dark-pool print from a snapshot export.
type DarkPoolRecord struct {
	Ticker     string  `json:"ticker"`
	Quantity   int64   `json:"quantity"`
	Price      float64 `json:"price"`
	TotalValue string  `json:"total_value"`
	Timestamp  string  `json:"timestamp"`
	SourceFile string  `json:"source_file,omitempty"`
}

// Snapshot is one timestamped export file handed to the merger.
type Snapshot struct {
	Filename  string
	CSVText   string
	Timestamp time.Time
}

// FileInfo describes one merged input file for MergedDataInfo.
type FileInfo struct {
	Filename    string    `json:"filename"`
	RecordCount int       `json:"record_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// DateRange spans the per-file timestamps of a merge input set.
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// MergedDataInfo is descriptive metadata about a completed merge. It is
// recomputed from scratch on every merge and covers the whole input set,
// including records later discarded as duplicates.
type MergedDataInfo struct {
	TotalFiles   int        `json:"total_files"`
	TotalRecords int        `json:"total_records"`
	DateRange    DateRange  `json:"date_range"`
	Files        []FileInfo `json:"files"`
}

// MergeResult carries the canonical deduplicated trade set and its metadata.
type MergeResult struct {
	Records []TradeRecord  `json:"records"`
	Info    MergedDataInfo `json:"info"`
}

// DarkPoolMergeResult is the dark-pool counterpart of MergeResult.
type DarkPoolMergeResult struct {
	Records []DarkPoolRecord `json:"records"`
	Info    MergedDataInfo   `json:"info"`
}
