package http

import (
	"context"

	"flowpulse/internal/analytics"
	"flowpulse/internal/flow"
	"flowpulse/internal/pricing"
	"flowpulse/internal/psychology"
	"flowpulse/internal/services"
)

// DataServiceInterface is the surface of the data service the handlers
// consume. Tests substitute a stub.
type DataServiceInterface interface {
	Reload(ctx context.Context, force bool) error
	ExportSummaries(ctx context.Context, format string) (string, error)
	Info(ctx context.Context) (services.DataInfo, error)
	Summaries(ctx context.Context) ([]analytics.TickerSummary, error)
	DarkPool(ctx context.Context) ([]flow.DarkPoolRecord, flow.MergedDataInfo, error)
	DarkPoolSummaries(ctx context.Context) ([]analytics.DarkPoolSummary, error)
	Profile(ctx context.Context, ticker, expiry string) ([]analytics.VolumeProfileEntry, error)
	HighestVolume(ctx context.Context, ticker, expiry string) (*analytics.VolumeProfileEntry, error)
	Expiries(ctx context.Context, ticker string) ([]string, error)
	KeyLevels(ctx context.Context, ticker string, topN int) ([]analytics.KeyPriceLevel, error)
	GammaExposure(ctx context.Context, ticker string) ([]analytics.GammaExposureEntry, error)
	MaxPain(ctx context.Context, ticker string) (analytics.MaxPainResult, error)
	Unusual(ctx context.Context, ticker string) (*analytics.UnusualActivityAlert, error)
	Price(ctx context.Context, ticker string) (pricing.Quote, error)
	PsychologyHourly(ctx context.Context, ticker string) ([]psychology.HourlyTradeData, error)
	PsychologyDaily(ctx context.Context, ticker string) ([]psychology.DailyTradePsychology, error)
	PsychologyWeekly(ctx context.Context) ([]psychology.WeeklyTickerData, error)
}
