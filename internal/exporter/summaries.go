package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"flowpulse/internal/analytics"
	"flowpulse/internal/flow"
)

var summaryHeaders = []string{
	"ticker", "total_volume", "call_volume", "put_volume",
	"total_premium", "unique_expiries", "last_activity",
}

var recordHeaders = []string{
	"ticker", "strike", "expiry", "option_type", "volume", "premium",
	"open_interest", "bid_ask_spread", "timestamp", "sweep_type", "source_file",
}

// ExportSummariesCSV writes ticker summaries as a CSV report.
func ExportSummariesCSV(w *CSVWriter, filePath string, summaries []analytics.TickerSummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, summaryRow(s))
	}
	return w.WriteSimpleCSV(filePath, summaryHeaders, rows)
}

// ExportSummariesJSON writes ticker summaries as indented JSON.
func ExportSummariesJSON(filePath string, summaries []analytics.TickerSummary) error {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summaries: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// ExportSummariesXLSX writes ticker summaries as a single-sheet workbook.
func ExportSummariesXLSX(filePath string, summaries []analytics.TickerSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Summaries"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range summaryHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, s := range summaries {
		for col, v := range summaryRow(s) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return f.SaveAs(filePath)
}

// ExportRecordsCSV streams the full merged record set to a CSV file.
func ExportRecordsCSV(w *CSVWriter, filePath string, records []flow.TradeRecord) error {
	sw, err := w.CreateStreamWriter(filePath, recordHeaders)
	if err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Ticker,
			formatFloat(r.Strike),
			r.Expiry,
			string(r.OptionType),
			formatInt(r.Volume),
			r.Premium,
			formatInt(r.OpenInterest),
			formatFloat(r.BidAskSpread),
			r.Timestamp,
			r.SweepType,
			r.SourceFile,
		}
		if err := sw.WriteRecord(row); err != nil {
			sw.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	return sw.Close()
}

func summaryRow(s analytics.TickerSummary) []string {
	return []string{
		s.Ticker,
		formatInt(s.TotalVolume),
		formatInt(s.CallVolume),
		formatInt(s.PutVolume),
		formatFloat(s.TotalPremium),
		strings.Join(s.UniqueExpiries, ";"),
		s.LastActivity,
	}
}
