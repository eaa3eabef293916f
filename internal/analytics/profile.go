package analytics

import (
	"sort"
	"time"

	"flowpulse/internal/flow"
)

// VolumeProfile groups a ticker's records by strike and sums call, put, and
// open-interest volumes. An empty expiry matches every expiry. The result
// is sorted ascending by strike.
func VolumeProfile(records []flow.TradeRecord, ticker, expiry string) []VolumeProfileEntry {
	byStrike := make(map[float64]*VolumeProfileEntry)

	for _, r := range records {
		if r.Ticker != ticker {
			continue
		}
		if expiry != "" && r.Expiry != expiry {
			continue
		}
		entry, exists := byStrike[r.Strike]
		if !exists {
			entry = &VolumeProfileEntry{Strike: r.Strike}
			byStrike[r.Strike] = entry
		}
		if r.OptionType == flow.Call {
			entry.CallVolume += r.Volume
		} else {
			entry.PutVolume += r.Volume
		}
		entry.OpenInterest += r.OpenInterest
		entry.TotalVolume += r.Volume
	}

	profile := make([]VolumeProfileEntry, 0, len(byStrike))
	for _, entry := range byStrike {
		profile = append(profile, *entry)
	}
	sort.Slice(profile, func(i, j int) bool {
		return profile[i].Strike < profile[j].Strike
	})
	return profile
}

// HighestVolume returns the profile entry with the largest total volume,
// or nil when no record matches the filter.
func HighestVolume(records []flow.TradeRecord, ticker, expiry string) *VolumeProfileEntry {
	profile := VolumeProfile(records, ticker, expiry)
	if len(profile) == 0 {
		return nil
	}
	best := profile[0]
	for _, entry := range profile[1:] {
		if entry.TotalVolume > best.TotalVolume {
			best = entry
		}
	}
	return &best
}

// ExpiryDates lists a ticker's distinct expiries. Expiries falling inside
// the current ISO week (Monday through Sunday of now) sort first; both
// partitions are then ordered chronologically, with unparseable expiry text
// at the very end.
func ExpiryDates(records []flow.TradeRecord, ticker string, now time.Time) []string {
	seen := make(map[string]struct{})
	var expiries []string
	for _, r := range records {
		if r.Ticker != ticker {
			continue
		}
		if _, dup := seen[r.Expiry]; dup {
			continue
		}
		seen[r.Expiry] = struct{}{}
		expiries = append(expiries, r.Expiry)
	}

	weekStart := isoWeekStart(now)
	weekEnd := weekStart.AddDate(0, 0, 7)

	type keyed struct {
		text     string
		date     time.Time
		parsed   bool
		thisWeek bool
	}
	keys := make([]keyed, len(expiries))
	for i, text := range expiries {
		date, ok := flow.ParseExpiry(text)
		keys[i] = keyed{
			text:     text,
			date:     date,
			parsed:   ok,
			thisWeek: ok && !date.Before(weekStart) && date.Before(weekEnd),
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.thisWeek != b.thisWeek {
			return a.thisWeek
		}
		if a.parsed != b.parsed {
			return a.parsed
		}
		if !a.parsed {
			return false
		}
		return a.date.Before(b.date)
	})

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.text
	}
	return out
}

// isoWeekStart returns midnight of the Monday beginning now's ISO week.
func isoWeekStart(now time.Time) time.Time {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -daysSinceMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location())
}
