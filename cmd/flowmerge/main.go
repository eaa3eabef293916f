// Command flowmerge merges snapshot exports from a directory into one
// deduplicated trade set and writes per-ticker summaries and the merged
// records to disk. It is the offline counterpart of the web server's
// reload endpoint.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"flowpulse/internal/analytics"
	"flowpulse/internal/exporter"
	"flowpulse/internal/files"
	"flowpulse/internal/flow"
)

func main() {
	inDir := flag.String("in", "data/snapshots", "directory containing snapshot CSV exports")
	outDir := flag.String("out", "data/exports", "output directory for merged data")
	format := flag.String("format", "csv", "summary output format: csv, json, or xlsx")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*inDir, *outDir, *format, logger); err != nil {
		logger.Error("merge failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(inDir, outDir, format string, logger *slog.Logger) error {
	now := time.Now()

	discovery := files.NewDiscovery(inDir, logger)
	optionFiles, err := discovery.FindOptionSnapshots(inDir)
	if err != nil {
		return fmt.Errorf("discover option snapshots: %w", err)
	}
	if len(optionFiles) == 0 {
		return fmt.Errorf("no option snapshot files in %s", inDir)
	}

	snapshots := make([]flow.Snapshot, 0, len(optionFiles))
	for _, sf := range optionFiles {
		snap, err := discovery.LoadSnapshot(sf)
		if err != nil {
			return fmt.Errorf("load %s: %w", sf.Name, err)
		}
		snapshots = append(snapshots, snap)
	}

	merger := flow.NewMerger(flow.NewParser(logger), logger)
	result := merger.Merge(snapshots, now)
	summaries := analytics.TickerSummaries(result.Records, now)

	logger.Info("merge complete",
		slog.Int("files", result.Info.TotalFiles),
		slog.Int("parsed", result.Info.TotalRecords),
		slog.Int("unique", len(result.Records)),
		slog.Int("tickers", len(summaries)))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	writer := exporter.NewCSVWriter(outDir)

	stamp := now.Format("2006-01-02_15-04")
	if err := exporter.ExportRecordsCSV(writer, fmt.Sprintf("merged_trades_%s.csv", stamp), result.Records); err != nil {
		return fmt.Errorf("export records: %w", err)
	}

	switch format {
	case "csv":
		err = exporter.ExportSummariesCSV(writer, fmt.Sprintf("summaries_%s.csv", stamp), summaries)
	case "json":
		err = exporter.ExportSummariesJSON(filepath.Join(outDir, fmt.Sprintf("summaries_%s.json", stamp)), summaries)
	case "xlsx":
		err = exporter.ExportSummariesXLSX(filepath.Join(outDir, fmt.Sprintf("summaries_%s.xlsx", stamp)), summaries)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("export summaries: %w", err)
	}

	logger.Info("exports written", slog.String("dir", outDir))
	return nil
}
