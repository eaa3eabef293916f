package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flowpulse/internal/analytics"
	"flowpulse/internal/flow"
)

func sampleSummaries() []analytics.TickerSummary {
	return []analytics.TickerSummary{
		{
			Ticker:         "AAPL",
			TotalVolume:    350,
			CallVolume:     300,
			PutVolume:      50,
			TotalPremium:   4000,
			UniqueExpiries: []string{"10/24/2025", "11/21/2025"},
			LastActivity:   "2:30 PM",
		},
		{
			Ticker:       "TSLA",
			TotalVolume:  500,
			PutVolume:    500,
			TotalPremium: 5000,
			LastActivity: "1:00 PM",
		},
	}
}

func TestExportSummariesCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, ExportSummariesCSV(w, "summaries.csv", sampleSummaries()))

	data, err := os.ReadFile(filepath.Join(dir, "summaries.csv"))
	require.NoError(t, err)

	text := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ticker,total_volume,call_volume,put_volume,total_premium,unique_expiries,last_activity", lines[0])
	assert.Equal(t, "AAPL,350,300,50,4000.00,10/24/2025;11/21/2025,2:30 PM", lines[1])
	assert.Equal(t, "TSLA,500,0,500,5000.00,,1:00 PM", lines[2])
}

func TestExportSummariesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "summaries.json")

	require.NoError(t, ExportSummariesJSON(path, sampleSummaries()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []analytics.TickerSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "AAPL", decoded[0].Ticker)
	assert.Equal(t, int64(350), decoded[0].TotalVolume)
}

func TestExportSummariesXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summaries.xlsx")

	require.NoError(t, ExportSummariesXLSX(path, sampleSummaries()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Summaries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ticker", rows[0][0])
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "500", rows[2][1])
}

func TestExportRecordsCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	records := []flow.TradeRecord{
		{
			Ticker:       "NVDA",
			Strike:       150,
			Expiry:       "11/21/2025",
			OptionType:   flow.Call,
			Volume:       1200,
			Premium:      "$1.2K",
			OpenInterest: 3000,
			BidAskSpread: 0.05,
			Timestamp:    "9:45 AM",
			SweepType:    "Sweep",
			SourceFile:   "options_data_2025-10-20_10-00.csv",
		},
	}

	require.NoError(t, ExportRecordsCSV(w, "records.csv", records))

	data, err := os.ReadFile(filepath.Join(dir, "records.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "NVDA,150.00,11/21/2025,Call,1200,$1.2K,3000,0.05,9:45 AM,Sweep")
}

func TestCSVWriterAppend(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV("data.csv", []string{"a", "b"}, [][]string{{"1", "2"}}))
	require.NoError(t, w.AppendToCSV("data.csv", [][]string{{"3", "4"}}))

	data, err := os.ReadFile(filepath.Join(dir, "data.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), "\xef\xbb\xbf")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "3,4", lines[2])
}
