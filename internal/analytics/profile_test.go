package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/flow"
)

func TestVolumeProfile(t *testing.T) {
	records := []flow.TradeRecord{
		trade("AAPL", 155, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("AAPL", 150, "10/24/2025", flow.Call, 200, "$2K", "10:00 AM"),
		trade("AAPL", 150, "10/24/2025", flow.Put, 50, "$500", "10:30 AM"),
		trade("AAPL", 150, "11/21/2025", flow.Put, 25, "$300", "11:00 AM"),
		trade("TSLA", 420, "10/24/2025", flow.Call, 999, "$9K", "11:30 AM"),
	}

	profile := VolumeProfile(records, "AAPL", "")
	require.Len(t, profile, 2)
	assert.Equal(t, 150.0, profile[0].Strike, "ascending by strike")
	assert.Equal(t, int64(200), profile[0].CallVolume)
	assert.Equal(t, int64(75), profile[0].PutVolume)
	assert.Equal(t, int64(275), profile[0].TotalVolume)
	assert.Equal(t, 155.0, profile[1].Strike)

	filtered := VolumeProfile(records, "AAPL", "10/24/2025")
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(250), filtered[0].TotalVolume, "other expiry excluded")
}

func TestVolumeProfile_Additivity(t *testing.T) {
	records := []flow.TradeRecord{
		trade("AAPL", 150, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("AAPL", 155, "10/24/2025", flow.Put, 200, "$2K", "10:00 AM"),
		trade("AAPL", 160, "11/21/2025", flow.Call, 300, "$3K", "10:30 AM"),
	}

	var sumRecords int64
	for _, r := range records {
		sumRecords += r.Volume
	}
	var sumProfile int64
	for _, entry := range VolumeProfile(records, "AAPL", "") {
		sumProfile += entry.TotalVolume
	}
	assert.Equal(t, sumRecords, sumProfile, "profile volumes are strictly additive")
}

func TestHighestVolume(t *testing.T) {
	records := []flow.TradeRecord{
		trade("AAPL", 150, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("AAPL", 155, "10/24/2025", flow.Call, 400, "$4K", "10:00 AM"),
	}

	best := HighestVolume(records, "AAPL", "")
	require.NotNil(t, best)
	assert.Equal(t, 155.0, best.Strike)

	assert.Nil(t, HighestVolume(records, "MSFT", ""), "no match returns nil")
}

func TestExpiryDates_CurrentWeekFirst(t *testing.T) {
	// testNow is Tuesday 2025-10-21; its ISO week runs Mon 10/20 - Sun 10/26.
	records := []flow.TradeRecord{
		trade("AAPL", 150, "11/21/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("AAPL", 150, "10/24/2025", flow.Call, 100, "$1K", "9:45 AM"),
		trade("AAPL", 150, "12/19/2025", flow.Put, 100, "$1K", "9:45 AM"),
		trade("AAPL", 150, "10/24/2025", flow.Put, 100, "$1K", "9:45 AM"),
	}

	expiries := ExpiryDates(records, "AAPL", testNow)
	assert.Equal(t, []string{"10/24/2025", "11/21/2025", "12/19/2025"}, expiries,
		"current-week expiry first, then chronological, deduplicated")
}

func TestExpiryDates_UnparseableLast(t *testing.T) {
	records := []flow.TradeRecord{
		trade("AAPL", 150, "weird", flow.Call, 100, "$1K", "9:45 AM"),
		trade("AAPL", 150, "11/21/2025", flow.Call, 100, "$1K", "9:45 AM"),
	}
	expiries := ExpiryDates(records, "AAPL", testNow)
	assert.Equal(t, []string{"11/21/2025", "weird"}, expiries)
}

func TestIsoWeekStart(t *testing.T) {
	tuesday := time.Date(2025, 10, 21, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), isoWeekStart(tuesday))

	sunday := time.Date(2025, 10, 26, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), isoWeekStart(sunday))

	monday := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, isoWeekStart(monday))
}
