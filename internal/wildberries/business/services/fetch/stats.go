package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"time"

	"wbsync/internal/wildberries/business/models"
)

// StatsKind selects which supplier statistics feed is pulled; the two feeds
// share one endpoint shape.
type StatsKind string

const (
	OrdersStats StatsKind = "orders"
	SalesStats  StatsKind = "sales"
)

const statsDateFormat = "2006-01-02T15:04:05.000000"

// statsLookback is 90 days on the first cycle to backfill history, then the
// 30-minute incremental window.
func statsDateFrom(now time.Time, firstUse bool) time.Time {
	if firstUse {
		return now.Add(-90 * 24 * time.Hour)
	}
	return now.Add(-30 * time.Minute)
}

// Stats pulls the orders or sales statistics feed for the current window.
// The endpoint is not paginated; all matching rows come back in one call.
func (c *Client) Stats(ctx context.Context, kind StatsKind, firstUse bool) ([]models.Record, error) {
	target := c.cfg.StatisticsBase + "/api/v1/supplier/" + string(kind)

	query := url.Values{}
	query.Set("dateFrom", statsDateFrom(c.now(), firstUse).Format(statsDateFormat))

	status, raw, err := c.call(ctx, http.MethodGet, target, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Log("error on getting %s stats: status %d, response: %s", kind, status, raw)
		return []models.Record{}, nil
	}

	var result []models.Record
	if err := models.DecodeJSON(bytes.NewReader(raw), &result); err != nil {
		c.log.Log("error decoding %s stats: %s", kind, err)
		return []models.Record{}, nil
	}
	return result, nil
}
