package analytics

import (
	"sort"
	"time"

	"flowpulse/internal/flow"
)

// DarkPoolSummary aggregates off-exchange prints for one ticker.
type DarkPoolSummary struct {
	Ticker        string  `json:"ticker"`
	TradeCount    int     `json:"trade_count"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
	LargestBlock  int64   `json:"largest_block"`
	AveragePrice  float64 `json:"average_price"`
	LastTradeTime string  `json:"last_trade_time,omitempty"`
}

// DarkPoolSummaries builds one summary per distinct ticker, ordered by
// total notional value descending then ticker ascending for stability.
// The notional prefers the print's reported total value and falls back to
// quantity times price when the report carries none.
func DarkPoolSummaries(records []flow.DarkPoolRecord, now time.Time) []DarkPoolSummary {
	type accumulator struct {
		summary  DarkPoolSummary
		priceSum float64
		lastAt   time.Time
		lastOK   bool
	}

	byTicker := make(map[string]*accumulator)
	for i := range records {
		r := records[i]
		acc, exists := byTicker[r.Ticker]
		if !exists {
			acc = &accumulator{summary: DarkPoolSummary{Ticker: r.Ticker}}
			byTicker[r.Ticker] = acc
		}

		acc.summary.TradeCount++
		acc.summary.TotalQuantity += r.Quantity
		if r.Quantity > acc.summary.LargestBlock {
			acc.summary.LargestBlock = r.Quantity
		}
		acc.priceSum += r.Price

		value := flow.ParsePremium(r.TotalValue)
		if value == 0 {
			value = float64(r.Quantity) * r.Price
		}
		acc.summary.TotalValue += value

		if at, ok := flow.ParseTimestamp(r.Timestamp, now); ok {
			if !acc.lastOK || at.After(acc.lastAt) {
				acc.lastAt = at
				acc.lastOK = true
				acc.summary.LastTradeTime = r.Timestamp
			}
		}
	}

	summaries := make([]DarkPoolSummary, 0, len(byTicker))
	for _, acc := range byTicker {
		if acc.summary.TradeCount > 0 {
			acc.summary.AveragePrice = acc.priceSum / float64(acc.summary.TradeCount)
		}
		summaries = append(summaries, acc.summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].TotalValue != summaries[j].TotalValue {
			return summaries[i].TotalValue > summaries[j].TotalValue
		}
		return summaries[i].Ticker < summaries[j].Ticker
	})
	return summaries
}
