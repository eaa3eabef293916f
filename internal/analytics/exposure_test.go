package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/flow"
)

func TestEstimateGammaExposure(t *testing.T) {
	records := []flow.TradeRecord{
		oiTrade(100, flow.Put, 10, 1000, "$1K"),
		oiTrade(100, flow.Call, 10, 200, "$1K"),
		oiTrade(108, flow.Call, 10, 500, "$1K"),
		oiTrade(115, flow.Call, 10, 100, "$1K"),
		oiTrade(130, flow.Put, 10, 400, "$1K"),
	}

	entries := EstimateGammaExposure(records, 100)
	require.Len(t, entries, 4)

	// Strike 100 is at the money: (1000-200) * 2.0 = 1600, the max.
	assert.Equal(t, 100.0, entries[0].Strike)
	assert.InDelta(t, 1600, entries[0].NetExposure, 0.001)
	assert.Equal(t, 2.0, entries[0].Weight)
	assert.Equal(t, "extreme", entries[0].Level)

	// Strike 108 sits 8% out: (0-500) * 1.5 = -750, |750|/1600 = 0.47.
	assert.Equal(t, 108.0, entries[1].Strike)
	assert.InDelta(t, -750, entries[1].NetExposure, 0.001)
	assert.Equal(t, "moderate", entries[1].Level)

	// Strike 115 sits 15% out: default weight.
	assert.Equal(t, 115.0, entries[2].Strike)
	assert.InDelta(t, -100, entries[2].NetExposure, 0.001)
	assert.Equal(t, 1.0, entries[2].Weight)
	assert.Equal(t, "low", entries[2].Level)

	// Strike 130 sits 30% out: 400 * 0.5 = 200.
	assert.Equal(t, 130.0, entries[3].Strike)
	assert.InDelta(t, 200, entries[3].NetExposure, 0.001)
	assert.Equal(t, 0.5, entries[3].Weight)
	assert.Equal(t, "low", entries[3].Level)
}

func TestEstimateGammaExposure_NoPrice(t *testing.T) {
	records := []flow.TradeRecord{
		oiTrade(100, flow.Put, 10, 300, "$1K"),
		oiTrade(200, flow.Call, 10, 300, "$1K"),
	}
	entries := EstimateGammaExposure(records, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, 1.0, entries[0].Weight)
	assert.Equal(t, 1.0, entries[1].Weight)
	assert.Nil(t, EstimateGammaExposure(nil, 100))
}

func TestCalculateMaxPain(t *testing.T) {
	// Hand-computed holder losses per candidate settle:
	//   settle  90: calls 1000*10 + 500*20 = 20000; puts 0        -> 20000
	//   settle 100: calls 500*10 = 5000;    puts 300*10 = 3000    ->  8000
	//   settle 105: calls 500*5 = 2500;     puts 300*15 = 4500    ->  7000
	//   settle 110: calls 0;                puts 300*20 + 800*5   -> 10000
	records := []flow.TradeRecord{
		oiTrade(100, flow.Call, 10, 1000, "$1K"),
		oiTrade(110, flow.Call, 10, 500, "$1K"),
		oiTrade(105, flow.Put, 10, 800, "$1K"),
		oiTrade(90, flow.Put, 10, 300, "$1K"),
	}

	result, ok := CalculateMaxPain(records)
	require.True(t, ok)
	assert.Equal(t, 90.0, result.Strike)
	assert.InDelta(t, 20000, result.TotalLoss, 0.001)
}

func TestCalculateMaxPain_SingleStrikeCallsOnly(t *testing.T) {
	// Only one candidate exists and settling exactly at it costs call
	// holders nothing by this loss rule.
	records := []flow.TradeRecord{
		oiTrade(150, flow.Call, 10, 700, "$1K"),
		oiTrade(150, flow.Call, 20, 300, "$2K"),
	}
	result, ok := CalculateMaxPain(records)
	require.True(t, ok)
	assert.Equal(t, 150.0, result.Strike)
	assert.Equal(t, 0.0, result.TotalLoss)
}

func TestCalculateMaxPain_Empty(t *testing.T) {
	_, ok := CalculateMaxPain(nil)
	assert.False(t, ok)
}
