package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/flow"
)

func sweepTrade(ticker string, volume int64, sweepType string) flow.TradeRecord {
	r := trade(ticker, 150, "10/24/2025", flow.Call, volume, "$1K", "9:45 AM")
	r.SweepType = sweepType
	return r
}

func TestDetectUnusualActivity_VolumeSpike(t *testing.T) {
	// Three quiet tickers and one loud one. Cross-ticker average volume is
	// (100*3+800)/4 = 275; 800 clears the 2x bar but not the 3x bar.
	all := []flow.TradeRecord{
		trade("AAA", 10, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("BBB", 10, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("CCC", 10, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("DDD", 10, "10/24/2025", flow.Call, 800, "$1K", "9:45 AM"),
	}
	alert := DetectUnusualActivity(all[3:], "DDD", all)
	require.NotNil(t, alert)
	assert.Equal(t, AlertVolume, alert.AlertType)
	assert.Equal(t, SeverityMedium, alert.Severity)
	assert.InDelta(t, 800.0/275.0, alert.VolumeVsAverage, 0.001)
}

func TestDetectUnusualActivity_SweepsEscalateToMultiple(t *testing.T) {
	var ddd []flow.TradeRecord
	for i := 0; i < 6; i++ {
		ddd = append(ddd, sweepTrade("DDD", 2000, "Sweep"))
	}
	all := append([]flow.TradeRecord{
		trade("AAA", 10, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("BBB", 10, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
	}, ddd...)

	alert := DetectUnusualActivity(ddd, "DDD", all)
	require.NotNil(t, alert)
	assert.Equal(t, AlertMultiple, alert.AlertType, "volume, premium and sweep all fired")
	assert.Equal(t, SeverityHigh, alert.Severity, "six sweeps clears the high bar")
	assert.Equal(t, 6, alert.SweepCount)
}

func TestDetectUnusualActivity_NothingUnusual(t *testing.T) {
	// Balanced call/put books with near-average volume trip nothing.
	all := []flow.TradeRecord{
		trade("AAA", 10, "10/24/2025", flow.Call, 50, "$1K", "9:45 AM"),
		trade("AAA", 10, "10/24/2025", flow.Put, 50, "$1K", "9:45 AM"),
		trade("BBB", 10, "10/24/2025", flow.Call, 55, "$1K", "9:45 AM"),
		trade("BBB", 10, "10/24/2025", flow.Put, 55, "$1K", "9:45 AM"),
	}
	assert.Nil(t, DetectUnusualActivity(all[:2], "AAA", all))
	assert.Nil(t, DetectUnusualActivity(nil, "ZZZ", all))
}

func TestDetectUnusualActivity_ExtremeRatio(t *testing.T) {
	// Equal total volume across tickers so only the call/put skew triggers.
	aaa := []flow.TradeRecord{
		trade("AAA", 10, "10/24/2025", flow.Call, 60, "$1K", "9:45 AM"),
		trade("AAA", 10, "10/24/2025", flow.Put, 10, "$1K", "9:45 AM"),
	}
	all := append([]flow.TradeRecord{
		trade("BBB", 10, "10/24/2025", flow.Call, 35, "$1K", "9:45 AM"),
		trade("BBB", 10, "10/24/2025", flow.Put, 35, "$1K", "9:45 AM"),
	}, aaa...)

	alert := DetectUnusualActivity(aaa, "AAA", all)
	require.NotNil(t, alert)
	assert.Equal(t, AlertRatio, alert.AlertType)
	assert.Equal(t, SeverityMedium, alert.Severity)
	assert.InDelta(t, 6.0, alert.CallPutRatio, 0.001)
}

func TestIsSweep(t *testing.T) {
	assert.True(t, IsSweep("Sweep"))
	assert.True(t, IsSweep("Unusual Sweep"))
	assert.True(t, IsSweep("Highly Unusual Sweep"))
	assert.False(t, IsSweep(""))
	assert.False(t, IsSweep("Above Ask"))
}
