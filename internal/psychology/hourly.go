package psychology

import (
	"time"

	"flowpulse/internal/flow"
)

// Exchange trading hours in minutes from midnight. The final slot is a
// short one covering 16:00 through 16:15.
const (
	sessionOpenMinute  = 9*60 + 30
	sessionCloseMinute = 16*60 + 15
	slotWidthMinutes   = 30
	slotCount          = 14
)

// AnalyzeHourly buckets a ticker's trades into fixed 30-minute slots across
// the 9:30-16:15 trading session. All fourteen slots are always returned so
// charts get a stable grid; trades whose timestamps fall outside the session
// or fail to parse are left out. Timestamps are bucketed by time of day, so
// multi-day data folds onto one session profile.
func AnalyzeHourly(records []flow.TradeRecord, ticker string, now time.Time) []HourlyTradeData {
	slots := make([]HourlyTradeData, slotCount)
	for i := range slots {
		start := slotStart(i, now)
		slots[i].Slot = start.Format("3:04 PM")
		slots[i].SlotStart = start
	}

	for _, r := range records {
		if r.Ticker != ticker {
			continue
		}
		at, ok := flow.ParseTimestamp(r.Timestamp, now)
		if !ok {
			continue
		}
		minute := at.Hour()*60 + at.Minute()
		if minute < sessionOpenMinute || minute > sessionCloseMinute {
			continue
		}
		idx := (minute - sessionOpenMinute) / slotWidthMinutes
		if idx >= slotCount {
			idx = slotCount - 1
		}
		accumulate(&slots[idx].Metrics, r)
	}

	for i := range slots {
		slots[i].Psychology = Classify(slots[i].Metrics, HourlyThresholds)
	}
	return slots
}

func slotStart(index int, now time.Time) time.Time {
	minute := sessionOpenMinute + index*slotWidthMinutes
	return time.Date(now.Year(), now.Month(), now.Day(), minute/60, minute%60, 0, 0, now.Location())
}
