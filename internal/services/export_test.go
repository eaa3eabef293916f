package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/cache"
	"flowpulse/internal/config"
)

func newExportTestService(t *testing.T) (*DataService, string) {
	t.Helper()
	snapDir := t.TempDir()
	exportDir := t.TempDir()
	writeSnapshot(t, snapDir, "options_data_2025-10-21_10-00.csv", optionSnapshotA)

	cfg := config.Default()
	cfg.Data.SnapshotDir = snapDir
	cfg.Data.ExportDir = exportDir
	svc := NewDataService(cfg, cache.NewMemoryCache(time.Minute), nil, testLogger())
	svc.nowFn = func() time.Time { return testNow }
	return svc, exportDir
}

func TestExportSummaries(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{format: FormatCSV, ext: ".csv"},
		{format: FormatJSON, ext: ".json"},
		{format: FormatXLSX, ext: ".xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			svc, exportDir := newExportTestService(t)

			path, err := svc.ExportSummaries(context.Background(), tt.format)
			require.NoError(t, err)

			assert.Equal(t, exportDir, filepath.Dir(path))
			assert.True(t, strings.HasSuffix(path, tt.ext), "path %q should end with %s", path, tt.ext)

			stat, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, stat.Size())
		})
	}
}

func TestExportSummariesCSVContent(t *testing.T) {
	svc, _ := newExportTestService(t)

	path, err := svc.ExportSummaries(context.Background(), FormatCSV)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAPL")
	assert.Contains(t, string(data), "NVDA")
}

func TestExportSummariesUnknownFormat(t *testing.T) {
	svc, _ := newExportTestService(t)

	_, err := svc.ExportSummaries(context.Background(), "pdf")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportSummariesNoSnapshots(t *testing.T) {
	cfg := config.Default()
	cfg.Data.SnapshotDir = t.TempDir()
	cfg.Data.ExportDir = t.TempDir()
	svc := NewDataService(cfg, cache.NewMemoryCache(time.Minute), nil, testLogger())

	_, err := svc.ExportSummaries(context.Background(), FormatCSV)
	require.ErrorIs(t, err, ErrNoSnapshots)
}
