package psychology

import "time"

// Sentiment labels produced by Classify.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
	SentimentMixed   = "mixed"
)

// Shared intensity levels for confidence, activity, and sweep intensity.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Trend labels for the week-over-week comparison.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// TradePsychology is the classifier output for one time bucket. It is a
// pure function of the bucket's aggregates and is never stored on its own.
type TradePsychology struct {
	Sentiment      string `json:"sentiment"`
	Confidence     string `json:"confidence"`
	Activity       string `json:"activity"`
	SweepIntensity string `json:"sweep_intensity"`
	Description    string `json:"description"`
}

// BucketMetrics carries the additive aggregates every time bucket shares.
type BucketMetrics struct {
	CallVolume              int64   `json:"call_volume"`
	PutVolume               int64   `json:"put_volume"`
	CallPremium             float64 `json:"call_premium"`
	PutPremium              float64 `json:"put_premium"`
	TotalVolume             int64   `json:"total_volume"`
	TotalTrades             int     `json:"total_trades"`
	SweepCount              int     `json:"sweep_count"`
	UnusualSweepCount       int     `json:"unusual_sweep_count"`
	HighlyUnusualSweepCount int     `json:"highly_unusual_sweep_count"`
}

// HourlyTradeData is one 30-minute trading-hour slot for a ticker.
type HourlyTradeData struct {
	Slot       string          `json:"slot"`
	SlotStart  time.Time       `json:"slot_start"`
	Metrics    BucketMetrics   `json:"metrics"`
	Psychology TradePsychology `json:"psychology"`
}

// DailyTradePsychology is one trading day (Mon-Fri) for a ticker.
type DailyTradePsychology struct {
	Date       string          `json:"date"`
	Day        time.Time       `json:"day"`
	Metrics    BucketMetrics   `json:"metrics"`
	Psychology TradePsychology `json:"psychology"`
}

// WeeklyBucket is one ISO week (Monday start) of a ticker's flow.
type WeeklyBucket struct {
	WeekStart  time.Time       `json:"week_start"`
	WeekLabel  string          `json:"week_label"`
	Metrics    BucketMetrics   `json:"metrics"`
	Psychology TradePsychology `json:"psychology"`
}

// WeeklyTickerData is the per-ticker weekly view with its derived trend and
// cross-week confidence.
type WeeklyTickerData struct {
	Ticker     string         `json:"ticker"`
	Weeks      []WeeklyBucket `json:"weeks"`
	Trend      string         `json:"trend"`
	Confidence string         `json:"confidence"`
}
