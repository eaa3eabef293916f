package psychology

import (
	"strings"

	"flowpulse/internal/flow"
)

// Sentiment ratio bounds shared by every granularity.
const (
	bullishVolumeRatio  = 1.5
	bullishPremiumRatio = 1.3
	bearishVolumeRatio  = 0.7
	bearishPremiumRatio = 0.8
	neutralBand         = 0.3
)

// Thresholds holds the confidence and activity cutoffs for one bucket
// granularity. Daily and weekly buckets see proportionally more flow than a
// 30-minute slot, so each granularity carries its own scaled set instead of
// reusing the hourly numbers.
type Thresholds struct {
	ConfidenceSweepsHigh    int
	ConfidenceSweepsMedium  int
	ConfidenceVolumeHigh    int64
	ConfidenceVolumeMedium  int64
	ActivityTradesHigh      int
	ActivityVolumeHigh      int64
	SweepIntensityHighCount int
	SweepIntensityMedCount  int
}

var (
	// HourlyThresholds covers a single 30-minute slot.
	HourlyThresholds = Thresholds{
		ConfidenceSweepsHigh:    5,
		ConfidenceSweepsMedium:  2,
		ConfidenceVolumeHigh:    50_000,
		ConfidenceVolumeMedium:  20_000,
		ActivityTradesHigh:      20,
		ActivityVolumeHigh:      30_000,
		SweepIntensityHighCount: 8,
		SweepIntensityMedCount:  3,
	}

	// DailyThresholds covers a full trading day, roughly 13 slots.
	DailyThresholds = Thresholds{
		ConfidenceSweepsHigh:    25,
		ConfidenceSweepsMedium:  10,
		ConfidenceVolumeHigh:    250_000,
		ConfidenceVolumeMedium:  100_000,
		ActivityTradesHigh:      100,
		ActivityVolumeHigh:      150_000,
		SweepIntensityHighCount: 40,
		SweepIntensityMedCount:  15,
	}

	// WeeklyThresholds covers five trading days.
	WeeklyThresholds = Thresholds{
		ConfidenceSweepsHigh:    125,
		ConfidenceSweepsMedium:  50,
		ConfidenceVolumeHigh:    1_250_000,
		ConfidenceVolumeMedium:  500_000,
		ActivityTradesHigh:      500,
		ActivityVolumeHigh:      750_000,
		SweepIntensityHighCount: 200,
		SweepIntensityMedCount:  75,
	}
)

// Classify derives the full psychology read for one bucket. It is stateless
// and safe to call from any goroutine.
func Classify(m BucketMetrics, th Thresholds) TradePsychology {
	volumeRatio := flowRatio(float64(m.CallVolume), float64(m.PutVolume))
	premiumRatio := flowRatio(m.CallPremium, m.PutPremium)

	p := TradePsychology{
		Sentiment:      classifySentiment(volumeRatio, premiumRatio),
		Confidence:     classifyConfidence(m, th),
		Activity:       classifyActivity(m, th),
		SweepIntensity: classifySweepIntensity(m, th),
	}
	p.Description = describe(m, p)
	return p
}

func classifySentiment(volumeRatio, premiumRatio float64) string {
	switch {
	case volumeRatio > bullishVolumeRatio && premiumRatio > bullishPremiumRatio:
		return SentimentBullish
	case volumeRatio < bearishVolumeRatio && premiumRatio < bearishPremiumRatio:
		return SentimentBearish
	case withinBand(volumeRatio) && withinBand(premiumRatio):
		return SentimentNeutral
	default:
		return SentimentMixed
	}
}

func classifyConfidence(m BucketMetrics, th Thresholds) string {
	switch {
	case m.SweepCount > th.ConfidenceSweepsHigh,
		m.HighlyUnusualSweepCount > 0,
		m.TotalVolume > th.ConfidenceVolumeHigh:
		return LevelHigh
	case m.SweepCount > th.ConfidenceSweepsMedium,
		m.UnusualSweepCount > 0,
		m.TotalVolume > th.ConfidenceVolumeMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

func classifyActivity(m BucketMetrics, th Thresholds) string {
	switch {
	case m.TotalTrades > th.ActivityTradesHigh, m.TotalVolume > th.ActivityVolumeHigh:
		return LevelHigh
	case m.TotalTrades > th.ActivityTradesHigh/2, m.TotalVolume > th.ActivityVolumeHigh/2:
		return LevelMedium
	default:
		return LevelLow
	}
}

func classifySweepIntensity(m BucketMetrics, th Thresholds) string {
	switch {
	case m.HighlyUnusualSweepCount > 0, m.SweepCount > th.SweepIntensityHighCount:
		return LevelHigh
	case m.UnusualSweepCount > 0, m.SweepCount > th.SweepIntensityMedCount:
		return LevelMedium
	default:
		return LevelLow
	}
}

func withinBand(ratio float64) bool {
	return ratio >= 1-neutralBand && ratio <= 1+neutralBand
}

// flowRatio mirrors the call/put convention used by the aggregation side: an
// all-call bucket reads as strongly call-skewed, an empty one as balanced.
func flowRatio(call, put float64) float64 {
	if put == 0 {
		if call == 0 {
			return 1
		}
		return call
	}
	return call / put
}

// accumulate folds one record into a bucket's metrics.
func accumulate(m *BucketMetrics, r flow.TradeRecord) {
	m.TotalVolume += r.Volume
	m.TotalTrades++
	premium := flow.ParsePremium(r.Premium)
	if r.OptionType == flow.Call {
		m.CallVolume += r.Volume
		m.CallPremium += premium
	} else {
		m.PutVolume += r.Volume
		m.PutPremium += premium
	}
	switch {
	case strings.Contains(r.SweepType, "Highly Unusual"):
		m.HighlyUnusualSweepCount++
		m.SweepCount++
	case strings.Contains(r.SweepType, "Unusual"):
		m.UnusualSweepCount++
		m.SweepCount++
	case strings.Contains(r.SweepType, "Sweep"):
		m.SweepCount++
	}
}
