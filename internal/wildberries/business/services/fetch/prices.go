package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"wbsync/internal/wildberries/business/models"
)

const pricesListPath = "/api/v2/list/goods/filter"

type pricesResponse struct {
	Data struct {
		ListGoods []models.Record `json:"listGoods"`
	} `json:"data"`
}

// ProductPrices pulls the full price list with plain offset pagination.
func (c *Client) ProductPrices(ctx context.Context) ([]models.Record, error) {
	limit := c.cfg.PricesPageLimit
	target := c.cfg.PricesBase + pricesListPath
	offset := 0

	var result []models.Record
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		query.Set("offset", strconv.Itoa(offset))

		status, raw, err := c.call(ctx, http.MethodGet, target, query, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.log.Log("error on getting product prices: status %d, response: %s", status, raw)
			return []models.Record{}, nil
		}

		var page pricesResponse
		if err := models.DecodeJSON(bytes.NewReader(raw), &page); err != nil {
			c.log.Log("error decoding product prices page: %s", err)
			return []models.Record{}, nil
		}

		result = append(result, page.Data.ListGoods...)
		if len(page.Data.ListGoods) < limit {
			break
		}
		offset += limit
	}

	return result, nil
}
