package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/analytics"
	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/flow"
	"flowpulse/internal/pricing"
	"flowpulse/internal/psychology"
	"flowpulse/internal/services"
)

// stubDataService returns canned values; err overrides every method.
type stubDataService struct {
	err       error
	info      services.DataInfo
	summaries []analytics.TickerSummary
	profile   []analytics.VolumeProfileEntry
	expiries  []string
	levels    []analytics.KeyPriceLevel
	gamma     []analytics.GammaExposureEntry
	maxPain   analytics.MaxPainResult
	alert     *analytics.UnusualActivityAlert
	quote     pricing.Quote

	darkSummaries []analytics.DarkPoolSummary

	reloads   int
	forced    bool
}

func (s *stubDataService) Reload(ctx context.Context, force bool) error {
	s.reloads++
	s.forced = force
	return s.err
}

func (s *stubDataService) DarkPoolSummaries(ctx context.Context) ([]analytics.DarkPoolSummary, error) {
	return s.darkSummaries, s.err
}

func (s *stubDataService) ExportSummaries(ctx context.Context, format string) (string, error) {
	return "/tmp/exports/summaries." + format, s.err
}

func (s *stubDataService) Info(ctx context.Context) (services.DataInfo, error) {
	return s.info, s.err
}

func (s *stubDataService) Summaries(ctx context.Context) ([]analytics.TickerSummary, error) {
	return s.summaries, s.err
}

func (s *stubDataService) DarkPool(ctx context.Context) ([]flow.DarkPoolRecord, flow.MergedDataInfo, error) {
	return nil, flow.MergedDataInfo{}, s.err
}

func (s *stubDataService) Profile(ctx context.Context, ticker, expiry string) ([]analytics.VolumeProfileEntry, error) {
	return s.profile, s.err
}

func (s *stubDataService) HighestVolume(ctx context.Context, ticker, expiry string) (*analytics.VolumeProfileEntry, error) {
	if len(s.profile) == 0 {
		return nil, s.err
	}
	return &s.profile[0], s.err
}

func (s *stubDataService) Expiries(ctx context.Context, ticker string) ([]string, error) {
	return s.expiries, s.err
}

func (s *stubDataService) KeyLevels(ctx context.Context, ticker string, topN int) ([]analytics.KeyPriceLevel, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topN < len(s.levels) {
		return s.levels[:topN], nil
	}
	return s.levels, nil
}

func (s *stubDataService) GammaExposure(ctx context.Context, ticker string) ([]analytics.GammaExposureEntry, error) {
	return s.gamma, s.err
}

func (s *stubDataService) MaxPain(ctx context.Context, ticker string) (analytics.MaxPainResult, error) {
	return s.maxPain, s.err
}

func (s *stubDataService) Unusual(ctx context.Context, ticker string) (*analytics.UnusualActivityAlert, error) {
	return s.alert, s.err
}

func (s *stubDataService) Price(ctx context.Context, ticker string) (pricing.Quote, error) {
	return s.quote, s.err
}

func (s *stubDataService) PsychologyHourly(ctx context.Context, ticker string) ([]psychology.HourlyTradeData, error) {
	return nil, s.err
}

func (s *stubDataService) PsychologyDaily(ctx context.Context, ticker string) ([]psychology.DailyTradePsychology, error) {
	return nil, s.err
}

func (s *stubDataService) PsychologyWeekly(ctx context.Context) ([]psychology.WeeklyTickerData, error) {
	return nil, s.err
}

func newTestHandler(svc DataServiceInterface) *DataHandler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewDataHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
}

func doRequest(t *testing.T, h *DataHandler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetTickers(t *testing.T) {
	svc := &stubDataService{
		summaries: []analytics.TickerSummary{
			{Ticker: "AAPL", TotalVolume: 2000},
			{Ticker: "NVDA", TotalVolume: 7200},
		},
	}
	rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/tickers")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["count"])
}

func TestGetInfo(t *testing.T) {
	svc := &stubDataService{
		info: services.DataInfo{
			LoadedAt:  time.Date(2025, 10, 21, 14, 0, 0, 0, time.UTC),
			TickerSet: 2,
		},
	}
	rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/info")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["ticker_count"])
}

func TestReload(t *testing.T) {
	svc := &stubDataService{}
	rec := doRequest(t, newTestHandler(svc), http.MethodPost, "/reload?force=true")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.reloads)
	assert.True(t, svc.forced)
}

func TestTickerCtxRejectsBadTicker(t *testing.T) {
	svc := &stubDataService{}
	h := newTestHandler(svc)

	for _, path := range []string{
		"/ticker/toolongticker/profile",
		"/ticker/SWEEP/profile",
		"/ticker/123/profile",
	} {
		rec := doRequest(t, h, http.MethodGet, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "/errors/validation", path)
	}
}

func TestGetProfileTickerNotFound(t *testing.T) {
	svc := &stubDataService{err: services.ErrTickerNotFound}
	rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/ticker/TSLA/profile")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not-found")
}

func TestGetKeyLevelsLimit(t *testing.T) {
	svc := &stubDataService{
		levels: []analytics.KeyPriceLevel{
			{Strike: 100}, {Strike: 110}, {Strike: 120},
		},
	}
	h := newTestHandler(svc)

	t.Run("custom limit", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/ticker/AAPL/levels?limit=2")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/ticker/AAPL/levels?limit=900")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetUnusualFlag(t *testing.T) {
	t.Run("flagged", func(t *testing.T) {
		svc := &stubDataService{alert: &analytics.UnusualActivityAlert{Ticker: "NVDA", AlertType: analytics.AlertVolume}}
		rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/ticker/NVDA/unusual")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["flagged"])
	})

	t.Run("quiet", func(t *testing.T) {
		svc := &stubDataService{}
		rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/ticker/NVDA/unusual")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["flagged"])
	})
}

func TestGetDarkPoolSummaries(t *testing.T) {
	svc := &stubDataService{darkSummaries: []analytics.DarkPoolSummary{
		{Ticker: "AAPL", TradeCount: 2, TotalQuantity: 170000, LargestBlock: 120000},
	}}

	rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/darkpool/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestExport(t *testing.T) {
	t.Run("default format", func(t *testing.T) {
		rec := doRequest(t, newTestHandler(&stubDataService{}), http.MethodPost, "/export")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "csv", decodeBody(t, rec)["format"])
	})

	t.Run("bad format", func(t *testing.T) {
		rec := doRequest(t, newTestHandler(&stubDataService{}), http.MethodPost, "/export?format=pdf")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetPrice(t *testing.T) {
	svc := &stubDataService{quote: pricing.Quote{Ticker: "AAPL", Price: 229.4, Source: pricing.SourceAPI}}
	rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/ticker/AAPL/price")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, 229.4, data["price"])
}

func TestHealthEndpoints(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	t.Run("ready", func(t *testing.T) {
		h := NewHealthHandler(&stubDataService{}, "1.0.0", logger)
		rec := httptest.NewRecorder()
		h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		h := NewHealthHandler(&stubDataService{err: services.ErrNoSnapshots}, "1.0.0", logger)
		rec := httptest.NewRecorder()
		h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("health", func(t *testing.T) {
		h := NewHealthHandler(&stubDataService{}, "1.0.0", logger)
		rec := httptest.NewRecorder()
		h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "1.0.0", body["version"])
	})
}
