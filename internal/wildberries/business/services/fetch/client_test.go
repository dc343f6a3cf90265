package fetch

import (
	"io"
	"time"

	"golang.org/x/time/rate"

	"wbsync/internal/wildberries/business/services"
	"wbsync/pkg/logger"
)

// newTestClient points every endpoint base at the given stub server and
// shrinks the vendor-mandated pauses and page limits so tests run instantly.
func newTestClient(base string) *Client {
	cfg := Config{
		ContentBase:    base,
		PricesBase:     base,
		StatisticsBase: base,
		AnalyticsBase:  base,
		AdvertBase:     base,
		CalendarBase:   base,

		RequestTimeout:     5 * time.Second,
		RateLimitBackoff:   time.Millisecond,
		StatusPollInterval: 0,
		PagePause:          0,
		ListDetailPause:    0,

		CardsPageLimit:   2,
		PricesPageLimit:  2,
		FinancePageLimit: 2,
		AdvertBatchSize:  2,
		StatsBatchSize:   2,
		PromoBatchSize:   2,
	}

	c := NewClient(services.NewBearerAuth("test-key"), logger.NewLogger(io.Discard, "[test]"), cfg)
	c.detailLimiter = rate.NewLimiter(rate.Inf, 1)
	c.calendarLimiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

// fixedNow pins the client clock for window assertions.
func fixedNow(c *Client, at time.Time) {
	c.now = func() time.Time { return at }
}
