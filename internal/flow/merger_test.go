package flow

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotAt(filename, csvText string) Snapshot {
	ts, _ := ParseFilenameTimestamp(filename)
	return Snapshot{Filename: filename, CSVText: csvText, Timestamp: ts}
}

func TestMerger_DedupNewestWins(t *testing.T) {
	m := NewMerger(nil, slog.Default())

	// Identical trade in both files, but the newer file reports a different
	// open interest. Open interest is outside the dedup key, so exactly one
	// record survives and it comes from the newer file.
	oldFile := cleanHeader + "\n" +
		cleanRow("AAPL", "150", "10/24/2025", "Call", "100", "$1.2K", "500", "0", "9:45 AM", "Sweep")
	newFile := cleanHeader + "\n" +
		cleanRow("AAPL", "150", "10/24/2025", "Call", "100", "$1.2K", "750", "0", "9:45 AM", "Sweep")

	result := m.Merge([]Snapshot{
		snapshotAt("options_data_2025-10-20_10-00.csv", oldFile),
		snapshotAt("options_data_2025-10-20_16-00.csv", newFile),
	}, testNow)

	require.Len(t, result.Records, 1)
	assert.Equal(t, int64(750), result.Records[0].OpenInterest)
	assert.Equal(t, "options_data_2025-10-20_16-00.csv", result.Records[0].SourceFile)
}

func TestMerger_Idempotent(t *testing.T) {
	m := NewMerger(nil, slog.Default())

	csvText := strings.Join([]string{
		cleanHeader,
		cleanRow("AAPL", "150", "10/24/2025", "Call", "100", "$1.2K", "500", "0", "9:45 AM", ""),
		cleanRow("TSLA", "420", "11/21/2025", "Put", "50", "$900", "200", "0", "10:15 AM", "Sweep"),
	}, "\n")
	snaps := []Snapshot{
		snapshotAt("options_data_2025-10-20_10-00.csv", csvText),
		snapshotAt("options_data_2025-10-20_16-00.csv", csvText),
	}

	first := m.Merge(snaps, testNow)
	second := m.Merge(snaps, testNow)

	require.Equal(t, len(first.Records), len(second.Records))
	for i := range first.Records {
		assert.Equal(t, first.Records[i], second.Records[i])
	}
	assert.Len(t, first.Records, 2, "repeated file contributes no duplicates")
}

func TestMerger_OverlappingSnapshots(t *testing.T) {
	m := NewMerger(nil, slog.Default())

	var morningRows, eveningRows []string
	morningRows = append(morningRows, cleanHeader)
	eveningRows = append(eveningRows, cleanHeader)
	for i := 0; i < 5; i++ {
		row := cleanRow("AAPL", fmt.Sprintf("%d", 150+i*5), "10/24/2025", "Call", "100", "$1.2K", "500", "0",
			fmt.Sprintf("10:%02d AM", i), "")
		morningRows = append(morningRows, row)
		eveningRows = append(eveningRows, row)
	}
	eveningRows = append(eveningRows,
		cleanRow("AAPL", "140", "10/24/2025", "Put", "75", "$800", "300", "0", "2:30 PM", "Sweep"),
		cleanRow("AAPL", "145", "10/24/2025", "Put", "60", "$650", "250", "0", "3:10 PM", ""),
	)

	result := m.Merge([]Snapshot{
		snapshotAt("options_data_2025-10-20_10-00.csv", strings.Join(morningRows, "\n")),
		snapshotAt("options_data_2025-10-20_16-00.csv", strings.Join(eveningRows, "\n")),
	}, testNow)

	assert.Len(t, result.Records, 7, "5 shared calls plus 2 new puts")
	assert.Equal(t, 2, result.Info.TotalFiles)
	assert.Equal(t, 12, result.Info.TotalRecords, "info counts parsed records, not survivors")

	// Files are reported newest first.
	require.Len(t, result.Info.Files, 2)
	assert.Equal(t, "options_data_2025-10-20_16-00.csv", result.Info.Files[0].Filename)
	assert.Equal(t, 7, result.Info.Files[0].RecordCount)

	// Date range spans the whole input set.
	assert.Equal(t, time.Date(2025, 10, 20, 10, 0, 0, 0, time.Local), result.Info.DateRange.Earliest)
	assert.Equal(t, time.Date(2025, 10, 20, 16, 0, 0, 0, time.Local), result.Info.DateRange.Latest)
}

func TestMerger_SortNewestFirstUnparseableLast(t *testing.T) {
	m := NewMerger(nil, slog.Default())

	csvText := strings.Join([]string{
		cleanHeader,
		cleanRow("AAPL", "150", "10/24/2025", "Call", "100", "$1K", "0", "0", "9:45 AM", ""),
		cleanRow("TSLA", "420", "11/21/2025", "Put", "50", "$1K", "0", "0", "when?", ""),
		cleanRow("NVDA", "900", "11/21/2025", "Call", "25", "$1K", "0", "0", "2:30 PM", ""),
	}, "\n")

	result := m.Merge([]Snapshot{snapshotAt("options_data_2025-10-20_16-00.csv", csvText)}, testNow)
	require.Len(t, result.Records, 3)
	assert.Equal(t, "NVDA", result.Records[0].Ticker, "latest parseable timestamp first")
	assert.Equal(t, "AAPL", result.Records[1].Ticker)
	assert.Equal(t, "TSLA", result.Records[2].Ticker, "unparseable timestamp sorts last")
}

func TestMerger_MergeDarkPool(t *testing.T) {
	m := NewMerger(nil, slog.Default())

	oldFile := "ticker,quantity,price,totalValue,timestamp\nSPY,250000,580.25,$145.1M,9:45 AM"
	newFile := "ticker,quantity,price,totalValue,timestamp\n" +
		"SPY,250000,580.25,$145.1M,9:45 AM\n" +
		"QQQ,50000,495.10,$24.8M,2:30 PM"

	result := m.MergeDarkPool([]Snapshot{
		snapshotAt("darkpool_data_2025-10-20_10-00.csv", oldFile),
		snapshotAt("darkpool_data_2025-10-20_16-00.csv", newFile),
	}, testNow)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "QQQ", result.Records[0].Ticker, "newest print first")
	assert.Equal(t, "darkpool_data_2025-10-20_16-00.csv", result.Records[1].SourceFile,
		"duplicate survives from the newer snapshot")
}
