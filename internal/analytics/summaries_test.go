package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/flow"
)

var testNow = time.Date(2025, 10, 21, 14, 30, 0, 0, time.UTC)

func trade(ticker string, strike float64, expiry string, t flow.OptionType, volume int64, premium, timestamp string) flow.TradeRecord {
	return flow.TradeRecord{
		Ticker:     ticker,
		Strike:     strike,
		Expiry:     expiry,
		OptionType: t,
		Volume:     volume,
		Premium:    premium,
		Timestamp:  timestamp,
	}
}

func TestTickerSummaries(t *testing.T) {
	records := []flow.TradeRecord{
		trade("AAPL", 150, "10/24/2025", flow.Call, 100, "$1.2K", "9:45 AM"),
		trade("AAPL", 155, "10/24/2025", flow.Call, 200, "$2K", "2:30 PM"),
		trade("AAPL", 150, "11/21/2025", flow.Put, 50, "$800", "10:15 AM"),
		trade("TSLA", 420, "10/24/2025", flow.Put, 500, "$5K", "1:00 PM"),
	}

	summaries := TickerSummaries(records, testNow)
	require.Len(t, summaries, 2)

	// AAPL's newest trade is 2:30 PM, which beats TSLA's 1:00 PM.
	aapl := summaries[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, int64(350), aapl.TotalVolume)
	assert.Equal(t, int64(300), aapl.CallVolume)
	assert.Equal(t, int64(50), aapl.PutVolume)
	assert.InDelta(t, 4000, aapl.TotalPremium, 0.01)
	assert.Equal(t, []string{"10/24/2025", "11/21/2025"}, aapl.UniqueExpiries, "insertion ordered, deduplicated")
	require.NotNil(t, aapl.LastActivityDate)
	assert.Equal(t, 14, aapl.LastActivityDate.Hour())
	require.NotNil(t, aapl.LastTrade)
	assert.Equal(t, 155.0, aapl.LastTrade.Strike, "last trade snapshots the record with the max timestamp")

	assert.Equal(t, "TSLA", summaries[1].Ticker)
}

func TestTickerSummaries_UnparseableTimestampsSortLast(t *testing.T) {
	records := []flow.TradeRecord{
		trade("MYST", 10, "10/24/2025", flow.Call, 9000, "$1K", "sometime"),
		trade("AAPL", 150, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
	}

	summaries := TickerSummaries(records, testNow)
	require.Len(t, summaries, 2)
	assert.Equal(t, "AAPL", summaries[0].Ticker, "known date beats unknown regardless of volume")
	assert.Equal(t, "MYST", summaries[1].Ticker)
	assert.Nil(t, summaries[1].LastActivityDate)
	assert.Equal(t, "sometime", summaries[1].LastActivity, "raw text kept for display")
}

func TestTickerSummaries_MergeScenario(t *testing.T) {
	// Five shared AAPL calls plus two puts only present in the later file.
	var records []flow.TradeRecord
	for i := 0; i < 5; i++ {
		records = append(records, trade("AAPL", 150+float64(i), "10/24/2025", flow.Call, 100, "$1K", "10:00 AM"))
	}
	records = append(records,
		trade("AAPL", 140, "10/24/2025", flow.Put, 75, "$800", "2:30 PM"),
		trade("AAPL", 145, "10/24/2025", flow.Put, 60, "$650", "3:10 PM"),
	)

	summaries := TickerSummaries(records, testNow)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(500), summaries[0].CallVolume)
	assert.Equal(t, int64(135), summaries[0].PutVolume)
	require.NotNil(t, summaries[0].LastActivityDate)
	assert.Equal(t, 15, summaries[0].LastActivityDate.Hour())
	assert.Equal(t, 10, summaries[0].LastActivityDate.Minute())
}

func TestTickerSummaries_Empty(t *testing.T) {
	assert.Empty(t, TickerSummaries(nil, testNow))
}
