package flow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Execution timestamps arrive as free text in a handful of shapes. Each
// matcher in the cascade either produces an absolute instant or declines;
// the first match wins. Unrecognized text is reported as not parseable and
// callers exclude the record from time-ordered operations.
var (
	fullTimestampRe = regexp.MustCompile(`^\s*(?:[A-Za-z]+,\s*)?([A-Za-z]+)\s+(\d{1,2}),\s*(\d{4})\s+at\s+(\d{1,2}):(\d{2})\s*([APap][Mm])\s*$`)
	yesterdayRe     = regexp.MustCompile(`^\s*[Yy]esterday\s+at\s+(\d{1,2}):(\d{2})\s*([APap][Mm])\s*$`)
	bareTimeRe      = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([APap][Mm])\s*$`)
	expiryUSRe      = regexp.MustCompile(`^\s*(\d{1,2})/(\d{1,2})/(\d{4})\s*$`)
	expiryISORe     = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})\s*$`)
	filenameStampRe = regexp.MustCompile(`(?:options_data|option_data|darkpool_data)_(\d{4})-(\d{2})-(\d{2})_(\d{2})-(\d{2})\.csv$`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ParseTimestamp resolves a free-text execution time against the supplied
// reference instant. Recognized forms, in priority order:
//
//  1. "Wednesday, October 8, 2025 at 3:02 PM" (weekday optional)
//  2. "Yesterday at 3:55 PM"
//  3. "9:45 AM" (today relative to now)
//
// Anything else reports ok=false. Callers must treat that as "timestamp
// unknown", never as the current time.
func ParseTimestamp(text string, now time.Time) (time.Time, bool) {
	if m := fullTimestampRe.FindStringSubmatch(text); m != nil {
		month, ok := monthsByName[strings.ToLower(m[1])]
		if !ok {
			return time.Time{}, false
		}
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		hour24, ok := to24Hour(hour, m[6])
		if !ok || day < 1 || day > 31 || minute > 59 {
			return time.Time{}, false
		}
		return time.Date(year, month, day, hour24, minute, 0, 0, now.Location()), true
	}

	if m := yesterdayRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		hour24, ok := to24Hour(hour, m[3])
		if !ok || minute > 59 {
			return time.Time{}, false
		}
		y := now.AddDate(0, 0, -1)
		return time.Date(y.Year(), y.Month(), y.Day(), hour24, minute, 0, 0, now.Location()), true
	}

	if m := bareTimeRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		hour24, ok := to24Hour(hour, m[3])
		if !ok || minute > 59 {
			return time.Time{}, false
		}
		return time.Date(now.Year(), now.Month(), now.Day(), hour24, minute, 0, 0, now.Location()), true
	}

	return time.Time{}, false
}

// to24Hour converts a 12-hour clock reading: 12 AM maps to 0, 12 PM stays
// 12, any other PM hour gains 12.
func to24Hour(hour int, meridiem string) (int, bool) {
	if hour < 1 || hour > 12 {
		return 0, false
	}
	pm := strings.EqualFold(meridiem, "pm")
	switch {
	case hour == 12 && !pm:
		return 0, true
	case hour == 12 && pm:
		return 12, true
	case pm:
		return hour + 12, true
	default:
		return hour, true
	}
}

// ParseExpiry accepts "MM/DD/YYYY" or ISO "YYYY-MM-DD" expiry strings.
func ParseExpiry(text string) (time.Time, bool) {
	if m := expiryUSRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
	}
	if m := expiryISORe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
	}
	return time.Time{}, false
}

// IsExpired reports whether an expiry string refers to a date strictly in
// the past. A contract stays valid through 23:59:59 of its expiry day.
// Unparseable expiries are treated as not expired so that records with odd
// expiry text are kept rather than silently dropped.
func IsExpired(expiryText string, now time.Time) bool {
	expiry, ok := ParseExpiry(expiryText)
	if !ok {
		return false
	}
	endOfDay := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 23, 59, 59, 0, now.Location())
	return endOfDay.Before(now)
}

// ParseFilenameTimestamp extracts the snapshot timestamp embedded in export
// filenames of the form {options_data|option_data|darkpool_data}_YYYY-MM-DD_HH-MM.csv.
func ParseFilenameTimestamp(filename string) (time.Time, bool) {
	m := filenameStampRe.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), true
}
