package analytics

import (
	"sort"
	"time"

	"flowpulse/internal/flow"
)

// TickerSummaries builds one TickerSummary per distinct ticker in a single
// pass over records. The summary's last-activity fields come from the
// record with the maximum parseable timestamp; ties and unparseable
// timestamps resolve by insertion order. The result is ordered by
// last-activity date descending with unknown dates last, then by total
// volume descending.
func TickerSummaries(records []flow.TradeRecord, now time.Time) []TickerSummary {
	type accumulator struct {
		summary    TickerSummary
		expirySeen map[string]struct{}
		lastAt     time.Time
		lastOK     bool
		order      int
	}

	byTicker := make(map[string]*accumulator)
	var order []*accumulator

	for i := range records {
		r := records[i]
		acc, exists := byTicker[r.Ticker]
		if !exists {
			acc = &accumulator{
				summary:    TickerSummary{Ticker: r.Ticker},
				expirySeen: make(map[string]struct{}),
				order:      len(order),
			}
			byTicker[r.Ticker] = acc
			order = append(order, acc)
		}

		acc.summary.TotalVolume += r.Volume
		if r.OptionType == flow.Call {
			acc.summary.CallVolume += r.Volume
		} else {
			acc.summary.PutVolume += r.Volume
		}
		acc.summary.TotalPremium += flow.ParsePremium(r.Premium)

		if _, seen := acc.expirySeen[r.Expiry]; !seen {
			acc.expirySeen[r.Expiry] = struct{}{}
			acc.summary.UniqueExpiries = append(acc.summary.UniqueExpiries, r.Expiry)
		}

		at, ok := flow.ParseTimestamp(r.Timestamp, now)
		newest := false
		switch {
		case acc.summary.LastTrade == nil:
			newest = true
		case ok && !acc.lastOK:
			newest = true
		case ok && acc.lastOK && at.After(acc.lastAt):
			newest = true
		}
		if newest {
			snapshot := r
			acc.summary.LastTrade = &snapshot
			acc.summary.LastActivity = r.Timestamp
			if ok {
				acc.lastAt = at
				acc.lastOK = true
				ts := at
				acc.summary.LastActivityDate = &ts
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.lastOK != b.lastOK {
			return a.lastOK
		}
		if a.lastOK && !a.lastAt.Equal(b.lastAt) {
			return a.lastAt.After(b.lastAt)
		}
		return a.summary.TotalVolume > b.summary.TotalVolume
	})

	summaries := make([]TickerSummary, len(order))
	for i, acc := range order {
		summaries[i] = acc.summary
	}
	return summaries
}
