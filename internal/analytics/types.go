package analytics

import (
	"time"

	"flowpulse/internal/flow"
)

// TickerSummary aggregates all activity for one ticker. Summaries are
// recomputed in full from the canonical trade set whenever it changes; they
// are never patched trade by trade.
type TickerSummary struct {
	Ticker           string            `json:"ticker"`
	TotalVolume      int64             `json:"total_volume"`
	CallVolume       int64             `json:"call_volume"`
	PutVolume        int64             `json:"put_volume"`
	TotalPremium     float64           `json:"total_premium"`
	UniqueExpiries   []string          `json:"unique_expiries"`
	LastActivity     string            `json:"last_activity"`
	LastActivityDate *time.Time        `json:"last_activity_date,omitempty"`
	LastTrade        *flow.TradeRecord `json:"last_trade,omitempty"`
}

// VolumeProfileEntry is the per-strike additive aggregate within a
// ticker/expiry filter.
type VolumeProfileEntry struct {
	Strike       float64 `json:"strike"`
	CallVolume   int64   `json:"call_volume"`
	PutVolume    int64   `json:"put_volume"`
	OpenInterest int64   `json:"open_interest"`
	TotalVolume  int64   `json:"total_volume"`
}

// Alert categories and severities for unusual-activity detection.
const (
	AlertVolume   = "volume"
	AlertPremium  = "premium"
	AlertSweep    = "sweep"
	AlertRatio    = "ratio"
	AlertSize     = "size"
	AlertMultiple = "multiple"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// UnusualActivityAlert flags a ticker whose flow stands out against the
// cross-ticker average.
type UnusualActivityAlert struct {
	Ticker           string  `json:"ticker"`
	AlertType        string  `json:"alert_type"`
	Severity         string  `json:"severity"`
	TotalVolume      int64   `json:"total_volume"`
	TotalPremium     float64 `json:"total_premium"`
	CallPutRatio     float64 `json:"call_put_ratio"`
	SweepCount       int     `json:"sweep_count"`
	AvgTradeSize     float64 `json:"avg_trade_size"`
	VolumeVsAverage  float64 `json:"volume_vs_average"`
	PremiumVsAverage float64 `json:"premium_vs_average"`
}

// KeyPriceLevel is a strike ranked by combined volume, open-interest, and
// premium significance.
type KeyPriceLevel struct {
	Strike       float64 `json:"strike"`
	TotalVolume  int64   `json:"total_volume"`
	OpenInterest int64   `json:"open_interest"`
	TotalPremium float64 `json:"total_premium"`
	Score        float64 `json:"score"`
	Significance string  `json:"significance"` // high, medium, low
	Type         string  `json:"type"`         // call, put, both
}

// GammaExposureEntry is the per-strike net exposure estimate. This is a
// deliberate simplification: no per-contract Greeks are computed, only
// open-interest imbalance scaled by an at-the-money proximity weight.
type GammaExposureEntry struct {
	Strike      float64 `json:"strike"`
	NetExposure float64 `json:"net_exposure"`
	Weight      float64 `json:"weight"`
	Level       string  `json:"level"` // extreme, high, moderate, low
}

// MaxPainResult names the settle price most painful to option holders,
// heuristically computed from aggregated open interest.
type MaxPainResult struct {
	Strike    float64 `json:"strike"`
	TotalLoss float64 `json:"total_loss"`
}
