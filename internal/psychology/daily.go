package psychology

import (
	"time"

	"flowpulse/internal/flow"
)

const dailyWindowDays = 5

// AnalyzeDaily walks backward from the most recent trading day (Mon-Fri)
// present in the data for exactly five trading days, skipping weekends, and
// returns them oldest first. Days inside the window with no trades still
// appear, with zeroed metrics. Returns nil when no trade carries a parseable
// weekday timestamp.
func AnalyzeDaily(records []flow.TradeRecord, ticker string, now time.Time) []DailyTradePsychology {
	byDay := make(map[time.Time]*BucketMetrics)
	var newest time.Time
	found := false

	for _, r := range records {
		if r.Ticker != ticker {
			continue
		}
		at, ok := flow.ParseTimestamp(r.Timestamp, now)
		if !ok || !isTradingDay(at) {
			continue
		}
		day := midnight(at)
		m, exists := byDay[day]
		if !exists {
			m = &BucketMetrics{}
			byDay[day] = m
		}
		accumulate(m, r)
		if !found || day.After(newest) {
			newest = day
			found = true
		}
	}
	if !found {
		return nil
	}

	days := make([]DailyTradePsychology, 0, dailyWindowDays)
	for day := newest; len(days) < dailyWindowDays; day = previousTradingDay(day) {
		var metrics BucketMetrics
		if m, ok := byDay[day]; ok {
			metrics = *m
		}
		days = append(days, DailyTradePsychology{
			Date:       day.Format("2006-01-02"),
			Day:        day,
			Metrics:    metrics,
			Psychology: Classify(metrics, DailyThresholds),
		})
	}

	// Reverse into chronological order.
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}

func isTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func previousTradingDay(day time.Time) time.Time {
	for {
		day = day.AddDate(0, 0, -1)
		if isTradingDay(day) {
			return day
		}
	}
}
