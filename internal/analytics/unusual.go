package analytics

import (
	"strings"

	"flowpulse/internal/flow"
)

// Unusual-activity thresholds, expressed against the cross-ticker average
// where a multiple applies.
const (
	unusualVolumeHighMultiple   = 3.0
	unusualVolumeMediumMultiple = 2.0
	unusualSweepHighCount       = 5
	unusualSweepMediumCount     = 2
	unusualRatioUpper           = 5.0
	unusualRatioLower           = 0.2
	unusualAvgTradeSize         = 5000.0
)

// DetectUnusualActivity compares one ticker's aggregate flow against the
// average ticker in allRecords. It returns nil when nothing crosses a
// threshold. When more than one of the volume, premium, and sweep
// categories trigger, the alert type escalates to "multiple".
func DetectUnusualActivity(tickerRecords []flow.TradeRecord, ticker string, allRecords []flow.TradeRecord) *UnusualActivityAlert {
	if len(tickerRecords) == 0 || len(allRecords) == 0 {
		return nil
	}

	var totalVolume int64
	var callVolume, putVolume int64
	var totalPremium float64
	sweepCount := 0
	for _, r := range tickerRecords {
		totalVolume += r.Volume
		if r.OptionType == flow.Call {
			callVolume += r.Volume
		} else {
			putVolume += r.Volume
		}
		totalPremium += flow.ParsePremium(r.Premium)
		if IsSweep(r.SweepType) {
			sweepCount++
		}
	}

	callPutRatio := ratio(float64(callVolume), float64(putVolume))
	avgTradeSize := float64(totalVolume) / float64(len(tickerRecords))

	avgVolume, avgPremium := crossTickerAverages(allRecords)

	var triggered []string
	severity := ""

	raise := func(s string) {
		if s == SeverityHigh || severity == "" {
			severity = s
		}
	}

	if avgVolume > 0 {
		switch {
		case float64(totalVolume) > unusualVolumeHighMultiple*avgVolume:
			triggered = append(triggered, AlertVolume)
			raise(SeverityHigh)
		case float64(totalVolume) > unusualVolumeMediumMultiple*avgVolume:
			triggered = append(triggered, AlertVolume)
			raise(SeverityMedium)
		}
	}
	if avgPremium > 0 {
		switch {
		case totalPremium > unusualVolumeHighMultiple*avgPremium:
			triggered = append(triggered, AlertPremium)
			raise(SeverityHigh)
		case totalPremium > unusualVolumeMediumMultiple*avgPremium:
			triggered = append(triggered, AlertPremium)
			raise(SeverityMedium)
		}
	}
	switch {
	case sweepCount > unusualSweepHighCount:
		triggered = append(triggered, AlertSweep)
		raise(SeverityHigh)
	case sweepCount > unusualSweepMediumCount:
		triggered = append(triggered, AlertSweep)
		raise(SeverityMedium)
	}

	alertType := ""
	switch {
	case len(triggered) > 1:
		alertType = AlertMultiple
	case len(triggered) == 1:
		alertType = triggered[0]
	}

	// Ratio and trade-size checks raise severity to at least medium but do
	// not count toward the multiple-category escalation.
	if callPutRatio > unusualRatioUpper || (putVolume > 0 && callPutRatio < unusualRatioLower) {
		raise(SeverityMedium)
		if alertType == "" {
			alertType = AlertRatio
		}
	}
	if avgTradeSize > unusualAvgTradeSize {
		raise(SeverityMedium)
		if alertType == "" {
			alertType = AlertSize
		}
	}

	if alertType == "" {
		return nil
	}

	return &UnusualActivityAlert{
		Ticker:           ticker,
		AlertType:        alertType,
		Severity:         severity,
		TotalVolume:      totalVolume,
		TotalPremium:     totalPremium,
		CallPutRatio:     callPutRatio,
		SweepCount:       sweepCount,
		AvgTradeSize:     avgTradeSize,
		VolumeVsAverage:  safeDiv(float64(totalVolume), avgVolume),
		PremiumVsAverage: safeDiv(totalPremium, avgPremium),
	}
}

// crossTickerAverages computes mean per-ticker volume and premium over the
// whole record set.
func crossTickerAverages(records []flow.TradeRecord) (avgVolume, avgPremium float64) {
	tickers := make(map[string]struct{})
	var totalVolume int64
	var totalPremium float64
	for _, r := range records {
		tickers[r.Ticker] = struct{}{}
		totalVolume += r.Volume
		totalPremium += flow.ParsePremium(r.Premium)
	}
	if len(tickers) == 0 {
		return 0, 0
	}
	n := float64(len(tickers))
	return float64(totalVolume) / n, totalPremium / n
}

// IsSweep reports whether a sweep-type tag marks any sweep tier.
func IsSweep(sweepType string) bool {
	return strings.Contains(sweepType, "Sweep")
}

// ratio divides call by put flow, treating an all-call book as strongly
// call-skewed rather than dividing by zero.
func ratio(call, put float64) float64 {
	if put == 0 {
		if call == 0 {
			return 1
		}
		return call
	}
	return call / put
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
