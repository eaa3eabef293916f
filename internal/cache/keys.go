package cache

import (
	"fmt"
	"strings"
	"time"

	"flowpulse/internal/flow"
)

const (
	parseKeyPrefixLen = 100
	summaryKeySample  = 3
)

// ParseKey fingerprints one snapshot file's raw content for the parse
// cache: filename, content length, and a content prefix. Any edit to the
// head of the file or change in size produces a new key.
func ParseKey(filename, csvText string) string {
	prefix := csvText
	if len(prefix) > parseKeyPrefixLen {
		prefix = prefix[:parseKeyPrefixLen]
	}
	return fmt.Sprintf("parse:%s:%d:%s", filename, len(csvText), prefix)
}

// SummaryKey fingerprints a merged record set for the derived-aggregate
// cache: record count, a sample of the leading records, and the single
// latest parsed timestamp across all records. The latest-timestamp term
// means appending any newer record invalidates the key even when the count
// and the leading sample happen to stay stable.
func SummaryKey(records []flow.TradeRecord, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "summary:%d", len(records))

	for i := 0; i < summaryKeySample && i < len(records); i++ {
		fmt.Fprintf(&b, ":%s|%s", records[i].Ticker, records[i].Timestamp)
	}

	var latest time.Time
	found := false
	for _, r := range records {
		at, ok := flow.ParseTimestamp(r.Timestamp, now)
		if !ok {
			continue
		}
		if !found || at.After(latest) {
			latest = at
			found = true
		}
	}
	if found {
		fmt.Fprintf(&b, ":latest=%d", latest.Unix())
	}
	return b.String()
}
