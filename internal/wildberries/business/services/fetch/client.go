package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"wbsync/internal/wildberries/business/services"
	"wbsync/pkg/logger"
)

// Config carries the endpoint bases and pacing knobs of the vendor client.
// Bases and delays are configurable so tests can point the client at stub
// servers and shrink the vendor-mandated pauses.
type Config struct {
	ContentBase    string
	PricesBase     string
	StatisticsBase string
	AnalyticsBase  string
	AdvertBase     string
	CalendarBase   string

	RequestTimeout time.Duration

	// RateLimitBackoff is slept after an HTTP 429 before retrying.
	RateLimitBackoff time.Duration
	// StatusPollInterval paces the warehouse report status polling.
	StatusPollInterval time.Duration
	// PagePause is slept between financial report pages and between
	// advert fullstats batches.
	PagePause time.Duration
	// ListDetailPause separates the campaign id listing from the first
	// detail request.
	ListDetailPause time.Duration

	CardsPageLimit   int
	PricesPageLimit  int
	FinancePageLimit int
	AdvertBatchSize  int
	StatsBatchSize   int
	PromoBatchSize   int
}

func DefaultConfig() Config {
	return Config{
		ContentBase:    "https://content-api.wildberries.ru",
		PricesBase:     "https://discounts-prices-api.wildberries.ru",
		StatisticsBase: "https://statistics-api.wildberries.ru",
		AnalyticsBase:  "https://seller-analytics-api.wildberries.ru",
		AdvertBase:     "https://advert-api.wildberries.ru",
		CalendarBase:   "https://dp-calendar-api.wildberries.ru",

		RequestTimeout:     100 * time.Second,
		RateLimitBackoff:   time.Minute,
		StatusPollInterval: 5 * time.Second,
		PagePause:          time.Minute,
		ListDetailPause:    time.Second,

		CardsPageLimit:   100,
		PricesPageLimit:  1000,
		FinancePageLimit: 100000,
		AdvertBatchSize:  50,
		StatsBatchSize:   100,
		PromoBatchSize:   100,
	}
}

// Client issues authenticated calls against the six Wildberries service
// hosts. One Client serves one credential; it holds no state between fetch
// operations.
type Client struct {
	http *http.Client
	auth services.AuthEngine
	log  logger.Logger
	cfg  Config

	// detailLimiter paces advert detail batches, calendarLimiter keeps the
	// promo calendar inside its ~10 requests / 6 seconds budget.
	detailLimiter   *rate.Limiter
	calendarLimiter *rate.Limiter

	now func() time.Time
}

func NewClient(auth services.AuthEngine, log logger.Logger, cfg Config) *Client {
	return &Client{
		http:            &http.Client{Timeout: cfg.RequestTimeout},
		auth:            auth,
		log:             log,
		cfg:             cfg,
		detailLimiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		calendarLimiter: rate.NewLimiter(rate.Every(700*time.Millisecond), 1),
		now:             time.Now,
	}
}

// call performs one HTTP round trip. Transport failures propagate; HTTP
// status handling is left to the caller because the operations disagree on
// what a non-200 means.
func (c *Client) call(ctx context.Context, method, rawURL string, query url.Values, payload interface{}) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, nil, err
	}
	c.auth.SetApiKey(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// callRetry429 wraps call with the vendor's rate-limit contract: a 429 is
// not a failure, it is an order to back off and try again.
func (c *Client) callRetry429(ctx context.Context, method, rawURL string, query url.Values, payload interface{}) (int, []byte, error) {
	for {
		status, raw, err := c.call(ctx, method, rawURL, query, payload)
		if err != nil {
			return 0, nil, err
		}
		if status != http.StatusTooManyRequests {
			return status, raw, nil
		}
		c.log.Log("rate limited on %s, retrying in %s", rawURL, c.cfg.RateLimitBackoff)
		if err := sleepCtx(ctx, c.cfg.RateLimitBackoff); err != nil {
			return 0, nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
