package psychology

import (
	"fmt"
	"sort"
	"time"

	"flowpulse/internal/flow"
)

// Modal-sentiment dominance cutoffs for the cross-week confidence.
const (
	weeklyConfidenceHighShare   = 0.75
	weeklyConfidenceMediumShare = 0.5
)

// AnalyzeWeekly groups every ticker's trades by ISO week (Monday start) and
// derives, per ticker, a trend from the two most recent weeks' sentiment and
// a confidence from how dominant the modal sentiment is across all weeks.
// Tickers come back alphabetically, weeks oldest first.
func AnalyzeWeekly(records []flow.TradeRecord, now time.Time) []WeeklyTickerData {
	type weekKey struct {
		ticker string
		start  time.Time
	}
	byWeek := make(map[weekKey]*BucketMetrics)
	tickerSet := make(map[string]struct{})

	for _, r := range records {
		at, ok := flow.ParseTimestamp(r.Timestamp, now)
		if !ok {
			continue
		}
		key := weekKey{ticker: r.Ticker, start: weekStart(at)}
		m, exists := byWeek[key]
		if !exists {
			m = &BucketMetrics{}
			byWeek[key] = m
		}
		accumulate(m, r)
		tickerSet[r.Ticker] = struct{}{}
	}
	if len(tickerSet) == 0 {
		return nil
	}

	tickers := make([]string, 0, len(tickerSet))
	for t := range tickerSet {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	out := make([]WeeklyTickerData, 0, len(tickers))
	for _, ticker := range tickers {
		var weeks []WeeklyBucket
		for key, m := range byWeek {
			if key.ticker != ticker {
				continue
			}
			year, week := key.start.ISOWeek()
			weeks = append(weeks, WeeklyBucket{
				WeekStart:  key.start,
				WeekLabel:  fmt.Sprintf("%d-W%02d", year, week),
				Metrics:    *m,
				Psychology: Classify(*m, WeeklyThresholds),
			})
		}
		sort.Slice(weeks, func(i, j int) bool {
			return weeks[i].WeekStart.Before(weeks[j].WeekStart)
		})

		out = append(out, WeeklyTickerData{
			Ticker:     ticker,
			Weeks:      weeks,
			Trend:      weeklyTrend(weeks),
			Confidence: weeklyConfidence(weeks),
		})
	}
	return out
}

// weekStart truncates to the Monday midnight of t's ISO week.
func weekStart(t time.Time) time.Time {
	daysBack := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -daysBack)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

// weeklyTrend compares the two most recent weeks' sentiment rank. A single
// week has nothing to compare against and reads as stable.
func weeklyTrend(weeks []WeeklyBucket) string {
	if len(weeks) < 2 {
		return TrendStable
	}
	latest := sentimentRank(weeks[len(weeks)-1].Psychology.Sentiment)
	previous := sentimentRank(weeks[len(weeks)-2].Psychology.Sentiment)
	switch {
	case latest > previous:
		return TrendImproving
	case latest < previous:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func sentimentRank(sentiment string) int {
	switch sentiment {
	case SentimentBullish:
		return 2
	case SentimentBearish:
		return 0
	default:
		return 1
	}
}

// weeklyConfidence measures how dominant the modal sentiment is across all
// of a ticker's weeks.
func weeklyConfidence(weeks []WeeklyBucket) string {
	if len(weeks) == 0 {
		return LevelLow
	}
	counts := make(map[string]int)
	modal := 0
	for _, w := range weeks {
		counts[w.Psychology.Sentiment]++
		if counts[w.Psychology.Sentiment] > modal {
			modal = counts[w.Psychology.Sentiment]
		}
	}
	share := float64(modal) / float64(len(weeks))
	switch {
	case share >= weeklyConfidenceHighShare:
		return LevelHigh
	case share >= weeklyConfidenceMediumShare:
		return LevelMedium
	default:
		return LevelLow
	}
}
