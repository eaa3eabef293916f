package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"flowpulse/internal/exporter"
	"flowpulse/internal/files"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ExportSummaries writes the current per-ticker summaries to the export
// directory in the requested format and returns the written file path.
func (s *DataService) ExportSummaries(ctx context.Context, format string) (string, error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		return "", err
	}

	exportDir := s.cfg.ExportDir()
	manager := files.NewManager(exportDir)
	if err := manager.EnsureDirectory("."); err != nil {
		return "", fmt.Errorf("ensure export directory: %w", err)
	}

	stamp := s.nowFn().Format("2006-01-02_15-04-05")
	name := fmt.Sprintf("summaries_%s.%s", stamp, format)
	path := filepath.Join(exportDir, name)

	switch format {
	case FormatCSV:
		err = exporter.ExportSummariesCSV(exporter.NewCSVWriter(exportDir), name, summaries)
	case FormatJSON:
		err = exporter.ExportSummariesJSON(path, summaries)
	case FormatXLSX:
		err = exporter.ExportSummariesXLSX(path, summaries)
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, format)
	}
	if err != nil {
		return "", fmt.Errorf("export summaries: %w", err)
	}

	s.logger.InfoContext(ctx, "summaries exported",
		slog.String("format", format),
		slog.String("path", path),
		slog.Int("tickers", len(summaries)))
	return path, nil
}
