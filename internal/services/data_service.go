package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"flowpulse/internal/analytics"
	"flowpulse/internal/cache"
	"flowpulse/internal/config"
	"flowpulse/internal/files"
	"flowpulse/internal/flow"
	"flowpulse/internal/pricing"
	"flowpulse/internal/psychology"
)

// loadConcurrency caps parallel snapshot reads during a reload.
const loadConcurrency = 4

// Broadcaster pushes server events to connected clients. The websocket hub
// implements it; a nil broadcaster disables notifications.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// marketState is one immutable generation of merged data. Reload swaps the
// whole generation under the write lock; readers take a snapshot pointer
// and never see a partial update.
type marketState struct {
	records      []flow.TradeRecord
	info         flow.MergedDataInfo
	darkPool     []flow.DarkPoolRecord
	darkPoolInfo flow.MergedDataInfo
	fingerprint  string
	loadedAt     time.Time
}

// DataInfo is descriptive metadata about the currently loaded data set.
type DataInfo struct {
	Options    flow.MergedDataInfo `json:"options"`
	DarkPool   flow.MergedDataInfo `json:"dark_pool"`
	LoadedAt   time.Time           `json:"loaded_at"`
	TickerSet  int                 `json:"ticker_count"`
	DarkTrades int                 `json:"dark_pool_trades"`
}

// DataService owns the canonical merged trade set and every aggregate
// derived from it.
type DataService struct {
	cfg       *config.Config
	logger    *slog.Logger
	discovery *files.Discovery
	merger    *flow.Merger
	cache     cache.Cache
	pricing   *pricing.Client
	metrics   *Metrics

	broadcaster Broadcaster
	nowFn       func() time.Time

	mu    sync.RWMutex
	state *marketState
}

// NewDataService creates a data service. aggCache and priceClient may be
// nil; caching and price lookups degrade gracefully without them.
func NewDataService(cfg *config.Config, aggCache cache.Cache, priceClient *pricing.Client, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "data_service"))
	return &DataService{
		cfg:       cfg,
		logger:    logger,
		discovery: files.NewDiscovery(cfg.SnapshotDir(), logger),
		merger:    flow.NewMerger(flow.NewParser(logger), logger),
		cache:     aggCache,
		pricing:   priceClient,
		nowFn:     time.Now,
	}
}

// SetBroadcaster wires the websocket hub. Must be called before the server
// starts accepting requests.
func (s *DataService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetMetrics wires the Prometheus metrics recorder.
func (s *DataService) SetMetrics(m *Metrics) {
	s.metrics = m
}

// Reload discovers snapshot exports, parses and merges them, and swaps in
// the new data generation. When force is false and the discovered file set
// fingerprints identically to the loaded one, the existing generation is
// kept and no parsing happens.
func (s *DataService) Reload(ctx context.Context, force bool) error {
	start := s.nowFn()

	dir := s.cfg.SnapshotDir()
	optionFiles, err := s.discovery.FindOptionSnapshots(dir)
	if err != nil {
		return fmt.Errorf("discover option snapshots: %w", err)
	}
	darkPoolFiles, err := s.discovery.FindDarkPoolSnapshots(dir)
	if err != nil {
		return fmt.Errorf("discover dark pool snapshots: %w", err)
	}
	if len(optionFiles) == 0 && len(darkPoolFiles) == 0 {
		return fmt.Errorf("%w in %s", ErrNoSnapshots, dir)
	}

	optionSnaps, err := s.loadAll(ctx, optionFiles)
	if err != nil {
		return fmt.Errorf("%w: load option snapshots: %v", ErrReloadFailed, err)
	}
	darkPoolSnaps, err := s.loadAll(ctx, darkPoolFiles)
	if err != nil {
		return fmt.Errorf("%w: load dark pool snapshots: %v", ErrReloadFailed, err)
	}

	fingerprint := fingerprintSnapshots(optionSnaps, darkPoolSnaps)
	if !force {
		s.mu.RLock()
		unchanged := s.state != nil && s.state.fingerprint == fingerprint
		s.mu.RUnlock()
		if unchanged {
			s.logger.InfoContext(ctx, "reload skipped, snapshots unchanged",
				slog.Int("files", len(optionSnaps)+len(darkPoolSnaps)))
			if s.metrics != nil {
				s.metrics.reloads.Inc()
			}
			return nil
		}
	}

	now := s.nowFn()
	merged := s.merger.Merge(optionSnaps, now)
	darkMerged := s.merger.MergeDarkPool(darkPoolSnaps, now)

	next := &marketState{
		records:      merged.Records,
		info:         merged.Info,
		darkPool:     darkMerged.Records,
		darkPoolInfo: darkMerged.Info,
		fingerprint:  fingerprint,
		loadedAt:     now,
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Clear()
	}
	if s.metrics != nil {
		s.metrics.reloads.Inc()
		s.metrics.reloadDuration.Observe(s.nowFn().Sub(start).Seconds())
		s.metrics.snapshotsRead.Add(float64(len(optionSnaps) + len(darkPoolSnaps)))
		s.metrics.recordsMerged.Set(float64(len(merged.Records)))
	}

	s.logger.InfoContext(ctx, "data reloaded",
		slog.Int("option_files", len(optionSnaps)),
		slog.Int("dark_pool_files", len(darkPoolSnaps)),
		slog.Int("records", len(merged.Records)),
		slog.Int("dark_pool_records", len(darkMerged.Records)),
		slog.Duration("took", s.nowFn().Sub(start)))

	if s.broadcaster != nil {
		s.broadcaster.Broadcast("data_refreshed", DataInfo{
			Options:    merged.Info,
			DarkPool:   darkMerged.Info,
			LoadedAt:   now,
			TickerSet:  countTickers(merged.Records),
			DarkTrades: len(darkMerged.Records),
		})
	}
	return nil
}

// loadAll reads snapshot files concurrently, bounded by loadConcurrency.
func (s *DataService) loadAll(ctx context.Context, sfs []files.SnapshotFile) ([]flow.Snapshot, error) {
	snaps := make([]flow.Snapshot, len(sfs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, sf := range sfs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			snap, err := s.discovery.LoadSnapshot(sf)
			if err != nil {
				return fmt.Errorf("%s: %w", sf.Name, err)
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// fingerprintSnapshots folds per-file content fingerprints into one value
// identifying the whole input set.
func fingerprintSnapshots(groups ...[]flow.Snapshot) string {
	var keys []string
	for _, snaps := range groups {
		for _, snap := range snaps {
			keys = append(keys, cache.ParseKey(snap.Filename, snap.CSVText))
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

func countTickers(records []flow.TradeRecord) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Ticker] = struct{}{}
	}
	return len(seen)
}

// current returns the loaded generation, lazily triggering the first load.
func (s *DataService) current(ctx context.Context) (*marketState, error) {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	if st != nil {
		return st, nil
	}
	if err := s.Reload(ctx, false); err != nil {
		return nil, err
	}
	s.mu.RLock()
	st = s.state
	s.mu.RUnlock()
	if st == nil {
		return nil, ErrNotLoaded
	}
	return st, nil
}

// Info describes the currently loaded data set.
func (s *DataService) Info(ctx context.Context) (DataInfo, error) {
	st, err := s.current(ctx)
	if err != nil {
		return DataInfo{}, err
	}
	return DataInfo{
		Options:    st.info,
		DarkPool:   st.darkPoolInfo,
		LoadedAt:   st.loadedAt,
		TickerSet:  countTickers(st.records),
		DarkTrades: len(st.darkPool),
	}, nil
}

// Summaries returns per-ticker aggregates over the canonical trade set,
// cached against the record-set fingerprint.
func (s *DataService) Summaries(ctx context.Context) ([]analytics.TickerSummary, error) {
	st, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	now := s.nowFn()
	key := cache.SummaryKey(st.records, now)
	if cached, ok := s.cacheGet(key); ok {
		if summaries, ok := cached.([]analytics.TickerSummary); ok {
			return summaries, nil
		}
	}
	summaries := analytics.TickerSummaries(st.records, now)
	s.cacheSet(key, summaries)
	return summaries, nil
}

// DarkPool returns the deduplicated dark-pool prints and their metadata.
func (s *DataService) DarkPool(ctx context.Context) ([]flow.DarkPoolRecord, flow.MergedDataInfo, error) {
	st, err := s.current(ctx)
	if err != nil {
		return nil, flow.MergedDataInfo{}, err
	}
	return st.darkPool, st.darkPoolInfo, nil
}

// DarkPoolSummaries aggregates the dark pool prints per ticker, ordered
// by total notional value descending.
func (s *DataService) DarkPoolSummaries(ctx context.Context) ([]analytics.DarkPoolSummary, error) {
	st, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.DarkPoolSummaries(st.darkPool, s.nowFn()), nil
}

// tickerRecords filters the canonical set for one ticker. The symbol is
// validated and upper-cased before matching.
func (s *DataService) tickerRecords(ctx context.Context, ticker string) ([]flow.TradeRecord, []flow.TradeRecord, string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if !flow.ValidTicker(symbol) {
		return nil, nil, "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	st, err := s.current(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	var matched []flow.TradeRecord
	for _, r := range st.records {
		if r.Ticker == symbol {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, nil, "", fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	return matched, st.records, symbol, nil
}

// Profile returns the per-strike volume profile for a ticker and expiry.
func (s *DataService) Profile(ctx context.Context, ticker, expiry string) ([]analytics.VolumeProfileEntry, error) {
	matched, _, symbol, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	key := s.aggregateKey("profile", symbol, expiry)
	if cached, ok := s.cacheGet(key); ok {
		if entries, ok := cached.([]analytics.VolumeProfileEntry); ok {
			return entries, nil
		}
	}
	entries := analytics.VolumeProfile(matched, symbol, expiry)
	s.cacheSet(key, entries)
	return entries, nil
}

// HighestVolume returns the single most traded strike for a ticker, or
// nil when no records match.
func (s *DataService) HighestVolume(ctx context.Context, ticker, expiry string) (*analytics.VolumeProfileEntry, error) {
	matched, _, symbol, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return analytics.HighestVolume(matched, symbol, expiry), nil
}

// Expiries returns the distinct non-expired expiry dates for a ticker.
func (s *DataService) Expiries(ctx context.Context, ticker string) ([]string, error) {
	matched, _, symbol, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return analytics.ExpiryDates(matched, symbol, s.nowFn()), nil
}

// KeyLevels returns the highest-scored strike levels for a ticker.
func (s *DataService) KeyLevels(ctx context.Context, ticker string, topN int) ([]analytics.KeyPriceLevel, error) {
	matched, _, _, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return analytics.IdentifyKeyPriceLevels(matched, topN), nil
}

// GammaExposure estimates per-strike dealer gamma exposure. The current
// price sharpens the estimate when the pricing backend can supply one;
// without it every strike carries equal weight.
func (s *DataService) GammaExposure(ctx context.Context, ticker string) ([]analytics.GammaExposureEntry, error) {
	matched, _, symbol, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	var currentPrice float64
	if s.pricing != nil {
		quote := s.pricing.Lookup(ctx, symbol)
		if quote.Source != pricing.SourceNone {
			currentPrice = quote.Price
		}
	}
	return analytics.EstimateGammaExposure(matched, currentPrice), nil
}

// MaxPain computes the settlement price that maximizes aggregate option
// holder loss for a ticker.
func (s *DataService) MaxPain(ctx context.Context, ticker string) (analytics.MaxPainResult, error) {
	matched, _, _, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return analytics.MaxPainResult{}, err
	}
	result, ok := analytics.CalculateMaxPain(matched)
	if !ok {
		return analytics.MaxPainResult{}, fmt.Errorf("%w: no strikes with open interest", ErrTickerNotFound)
	}
	return result, nil
}

// Unusual evaluates a ticker's flow against cross-ticker averages. A nil
// alert with nil error means nothing stands out.
func (s *DataService) Unusual(ctx context.Context, ticker string) (*analytics.UnusualActivityAlert, error) {
	matched, all, symbol, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return analytics.DetectUnusualActivity(matched, symbol, all), nil
}

// Price looks up the current price for a ticker via the pricing backend.
func (s *DataService) Price(ctx context.Context, ticker string) (pricing.Quote, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if !flow.ValidTicker(symbol) {
		return pricing.Quote{}, fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	if s.pricing == nil {
		return pricing.Quote{}, fmt.Errorf("%w: no pricing backend configured", ErrPriceUnavailable)
	}
	quote := s.pricing.Lookup(ctx, symbol)
	if quote.Source == pricing.SourceNone {
		return quote, fmt.Errorf("%w for %s", ErrPriceUnavailable, symbol)
	}
	return quote, nil
}

// PsychologyHourly breaks one session into half-hour sentiment buckets.
func (s *DataService) PsychologyHourly(ctx context.Context, ticker string) ([]psychology.HourlyTradeData, error) {
	matched, _, symbol, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return psychology.AnalyzeHourly(matched, symbol, s.nowFn()), nil
}

// PsychologyDaily covers the five most recent trading days for a ticker.
func (s *DataService) PsychologyDaily(ctx context.Context, ticker string) ([]psychology.DailyTradePsychology, error) {
	matched, _, symbol, err := s.tickerRecords(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return psychology.AnalyzeDaily(matched, symbol, s.nowFn()), nil
}

// PsychologyWeekly buckets the whole data set by ISO week across all
// tickers.
func (s *DataService) PsychologyWeekly(ctx context.Context) ([]psychology.WeeklyTickerData, error) {
	st, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return psychology.AnalyzeWeekly(st.records, s.nowFn()), nil
}

// aggregateKey derives a cache key for a ticker-scoped aggregate, tied to
// the record-set fingerprint so any data change invalidates it.
func (s *DataService) aggregateKey(kind, ticker, extra string) string {
	s.mu.RLock()
	fp := ""
	if s.state != nil {
		fp = s.state.fingerprint
	}
	s.mu.RUnlock()
	h := fnv.New64a()
	h.Write([]byte(fp))
	return fmt.Sprintf("%s:%s:%s:%x", kind, ticker, extra, h.Sum64())
}

func (s *DataService) cacheGet(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(key)
	if ok {
		s.metrics.cacheHit()
	} else {
		s.metrics.cacheMiss()
	}
	return v, ok
}

func (s *DataService) cacheSet(key string, value any) {
	if s.cache != nil {
		s.cache.Set(key, value)
	}
}
