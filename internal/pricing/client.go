// Package pricing looks up current underlying prices with a per-ticker
// 15-minute cache in front of the quote API.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Quote source labels.
const (
	SourceAPI  = "api"
	SourceNone = "none"
)

// DefaultTTL is how long a fetched price stays fresh per ticker.
const DefaultTTL = 15 * time.Minute

// Quote is one price lookup result. Source is "none" when no price could
// be fetched; Cached marks a repeat hit inside the TTL window.
type Quote struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	Cached    bool      `json:"cached"`
	FetchedAt time.Time `json:"fetched_at"`
}

type cachedQuote struct {
	price     float64
	fetchedAt time.Time
}

// Client fetches quotes over HTTP. The zero value is not usable; construct
// with NewClient. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	ttl        time.Duration
	nowFn      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// NewClient builds a quote client against baseURL. An empty baseURL
// disables lookups entirely; every call then returns a "none" quote.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
		logger:     logger.With(slog.String("component", "pricing")),
		ttl:        DefaultTTL,
		nowFn:      time.Now,
		cache:      make(map[string]cachedQuote),
	}
}

type quoteResponse struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

// Lookup returns the current price for ticker, serving repeat calls inside
// the TTL window from cache. Failures degrade to a "none" quote rather
// than an error; price absence is an expected state for the callers.
func (c *Client) Lookup(ctx context.Context, ticker string) Quote {
	now := c.nowFn()

	c.mu.Lock()
	cached, ok := c.cache[ticker]
	c.mu.Unlock()
	if ok && now.Sub(cached.fetchedAt) < c.ttl {
		return Quote{
			Ticker:    ticker,
			Price:     cached.price,
			Source:    SourceAPI,
			Cached:    true,
			FetchedAt: cached.fetchedAt,
		}
	}

	price, err := c.fetch(ctx, ticker)
	if err != nil {
		c.logger.WarnContext(ctx, "price lookup failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()))
		return Quote{Ticker: ticker, Source: SourceNone, FetchedAt: now}
	}

	c.mu.Lock()
	c.cache[ticker] = cachedQuote{price: price, fetchedAt: now}
	c.mu.Unlock()

	return Quote{Ticker: ticker, Price: price, Source: SourceAPI, FetchedAt: now}
}

func (c *Client) fetch(ctx context.Context, ticker string) (float64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("no quote endpoint configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/quote?ticker=%s", c.baseURL, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote endpoint returned status %d", resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode quote response: %w", err)
	}
	if body.Price <= 0 {
		return 0, fmt.Errorf("quote endpoint returned non-positive price %g", body.Price)
	}
	return body.Price, nil
}

// ClearCache drops all cached quotes.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]cachedQuote)
	c.mu.Unlock()
}
