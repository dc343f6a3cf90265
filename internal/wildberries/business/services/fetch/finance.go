package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wbsync/internal/wildberries/business/models"
)

const financeReportPath = "/api/v5/supplier/reportDetailByPeriod"

// financeInception is the release date of the v5 report method; the first
// cycle backfills from here.
const financeInception = "2024-01-29"

const financeDateFormat = "2006-01-02"

func financeWindow(now time.Time, firstUse bool) (string, string) {
	dateTo := now.Format(financeDateFormat)
	if firstUse {
		return financeInception, dateTo
	}
	return now.Add(-7 * 24 * time.Hour).Format(financeDateFormat), dateTo
}

// FinancialReport pages through the detailed reconciliation report using the
// trailing rrd_id of each page as the next offset marker. Pages are paced a
// minute apart; the endpoint has the tightest rate budget of the API.
func (c *Client) FinancialReport(ctx context.Context, firstUse bool) ([]models.Record, error) {
	limit := c.cfg.FinancePageLimit
	target := c.cfg.StatisticsBase + financeReportPath

	dateFrom, dateTo := financeWindow(c.now(), firstUse)
	rrdID := "0"

	var result []models.Record
	for {
		query := url.Values{}
		query.Set("dateFrom", dateFrom)
		query.Set("dateTo", dateTo)
		query.Set("rrdid", rrdID)
		query.Set("limit", strconv.Itoa(limit))

		status, raw, err := c.call(ctx, http.MethodGet, target, query, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.log.Log("error on getting financial report: status %d, response: %s", status, raw)
			return []models.Record{}, nil
		}

		var page []models.Record
		if err := models.DecodeJSON(bytes.NewReader(raw), &page); err != nil {
			c.log.Log("error decoding financial report page: %s", err)
			return []models.Record{}, nil
		}

		result = append(result, page...)
		if len(page) < limit {
			break
		}

		last, ok := models.Number(page[len(page)-1], "rrd_id")
		if !ok {
			c.log.Log("financial report row has no rrd_id, maybe API is updated?")
			return []models.Record{}, nil
		}
		rrdID = last.String()

		if err := sleepCtx(ctx, c.cfg.PagePause); err != nil {
			return nil, err
		}
	}

	return result, nil
}
