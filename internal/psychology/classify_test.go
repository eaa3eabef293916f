package psychology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySentiment(t *testing.T) {
	tests := []struct {
		name    string
		metrics BucketMetrics
		want    string
	}{
		{
			name: "call skew in volume and premium is bullish",
			metrics: BucketMetrics{
				CallVolume: 300, PutVolume: 100,
				CallPremium: 2000, PutPremium: 1000,
			},
			want: SentimentBullish,
		},
		{
			name: "put skew in volume and premium is bearish",
			metrics: BucketMetrics{
				CallVolume: 50, PutVolume: 100,
				CallPremium: 70, PutPremium: 100,
			},
			want: SentimentBearish,
		},
		{
			name: "balanced flow is neutral",
			metrics: BucketMetrics{
				CallVolume: 100, PutVolume: 100,
				CallPremium: 110, PutPremium: 100,
			},
			want: SentimentNeutral,
		},
		{
			name: "volume skew without premium agreement is mixed",
			metrics: BucketMetrics{
				CallVolume: 300, PutVolume: 100,
				CallPremium: 100, PutPremium: 100,
			},
			want: SentimentMixed,
		},
		{
			name:    "empty bucket is neutral",
			metrics: BucketMetrics{},
			want:    SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.metrics, HourlyThresholds)
			assert.Equal(t, tt.want, p.Sentiment)
		})
	}
}

func TestClassifyConfidenceAndActivity(t *testing.T) {
	tests := []struct {
		name           string
		metrics        BucketMetrics
		wantConfidence string
		wantActivity   string
	}{
		{
			name:           "one highly unusual sweep forces high confidence",
			metrics:        BucketMetrics{HighlyUnusualSweepCount: 1, SweepCount: 1, TotalTrades: 1, TotalVolume: 10},
			wantConfidence: LevelHigh,
			wantActivity:   LevelLow,
		},
		{
			name:           "volume alone can carry confidence",
			metrics:        BucketMetrics{TotalVolume: 60_000, TotalTrades: 3},
			wantConfidence: LevelHigh,
			wantActivity:   LevelHigh,
		},
		{
			name:           "unusual sweep lands at medium",
			metrics:        BucketMetrics{UnusualSweepCount: 1, SweepCount: 1, TotalTrades: 11, TotalVolume: 100},
			wantConfidence: LevelMedium,
			wantActivity:   LevelMedium,
		},
		{
			name:           "quiet bucket stays low",
			metrics:        BucketMetrics{TotalTrades: 2, TotalVolume: 500},
			wantConfidence: LevelLow,
			wantActivity:   LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.metrics, HourlyThresholds)
			assert.Equal(t, tt.wantConfidence, p.Confidence)
			assert.Equal(t, tt.wantActivity, p.Activity)
		})
	}
}

func TestClassifySweepIntensity(t *testing.T) {
	assert.Equal(t, LevelHigh, Classify(BucketMetrics{SweepCount: 9}, HourlyThresholds).SweepIntensity)
	assert.Equal(t, LevelHigh, Classify(BucketMetrics{HighlyUnusualSweepCount: 1, SweepCount: 1}, HourlyThresholds).SweepIntensity)
	assert.Equal(t, LevelMedium, Classify(BucketMetrics{SweepCount: 4}, HourlyThresholds).SweepIntensity)
	assert.Equal(t, LevelLow, Classify(BucketMetrics{SweepCount: 3}, HourlyThresholds).SweepIntensity)
}

func TestClassifyScaledThresholds(t *testing.T) {
	// 9 sweeps is high intensity for a 30-minute slot but low for a week.
	m := BucketMetrics{SweepCount: 9, TotalTrades: 25, TotalVolume: 1000}
	assert.Equal(t, LevelHigh, Classify(m, HourlyThresholds).SweepIntensity)
	assert.Equal(t, LevelLow, Classify(m, WeeklyThresholds).SweepIntensity)
	assert.Equal(t, LevelHigh, Classify(m, HourlyThresholds).Activity)
	assert.Equal(t, LevelLow, Classify(m, WeeklyThresholds).Activity)
}

func TestDescribe(t *testing.T) {
	bullish := Classify(BucketMetrics{
		CallVolume: 31_000, PutVolume: 1000,
		CallPremium: 2000, PutPremium: 100,
		TotalVolume: 32_000, TotalTrades: 5,
		SweepCount: 4, UnusualSweepCount: 1,
	}, HourlyThresholds)
	assert.Contains(t, bullish.Description, "Call buying dominated")
	assert.Contains(t, bullish.Description, "4 sweep orders")
	assert.Contains(t, bullish.Description, "32,000 contracts")

	quiet := Classify(BucketMetrics{CallVolume: 10, PutVolume: 10, TotalVolume: 20, TotalTrades: 2}, HourlyThresholds)
	assert.Contains(t, quiet.Description, "balanced")
	assert.NotContains(t, quiet.Description, "sweep")
	assert.NotContains(t, quiet.Description, "contracts")
}
