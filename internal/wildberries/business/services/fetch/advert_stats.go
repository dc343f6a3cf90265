package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"wbsync/internal/wildberries/business/models"
)

const advertFullStatsPath = "/adv/v2/fullstats"

type statsInterval struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

type advertStatsRequest struct {
	ID       int64          `json:"id"`
	Interval *statsInterval `json:"interval,omitempty"`
}

// fullStatsResponse mirrors the campaign -> day -> app -> product tree; only
// the levels that get flattened away are typed, product rows stay raw.
type fullStatsResponse []struct {
	AdvertID json.Number `json:"advertId"`
	Days     []struct {
		Date string `json:"date"`
		Apps []struct {
			AppType json.Number     `json:"appType"`
			Nm      []models.Record `json:"nm"`
		} `json:"apps"`
	} `json:"days"`
}

// AdvertStats pulls full statistics for the campaigns found eligible by
// AdvertDetails and flattens the per-campaign tree into one record per
// product, day and app channel. On first use each id carries a 30-day
// interval; afterwards the vendor defaults to "since last call". Batches
// are paced a minute apart to stay inside the fullstats budget.
func (c *Client) AdvertStats(ctx context.Context, ids []int64, firstUse bool) ([]models.Record, error) {
	if len(ids) == 0 {
		c.log.Log("WARNING: no eligible campaigns, advert statistics must follow a details fetch")
		return []models.Record{}, nil
	}

	target := c.cfg.AdvertBase + advertFullStatsPath
	batch := c.cfg.StatsBatchSize

	var interval *statsInterval
	if firstUse {
		now := c.now()
		interval = &statsInterval{
			Begin: now.Add(-30 * 24 * time.Hour).Format("2006-01-02"),
			End:   now.Format("2006-01-02"),
		}
	}

	var result []models.Record
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		lastBatch := end == len(ids)

		body := make([]advertStatsRequest, 0, end-start)
		for _, id := range ids[start:end] {
			body = append(body, advertStatsRequest{ID: id, Interval: interval})
		}

		status, raw, err := c.call(ctx, http.MethodPost, target, nil, body)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.log.Log("error on getting promotion statistics: status %d, response: %s", status, raw)
			if err := sleepCtx(ctx, c.cfg.PagePause); err != nil {
				return nil, err
			}
			continue
		}

		var stats fullStatsResponse
		if err := models.DecodeJSON(bytes.NewReader(raw), &stats); err != nil {
			c.log.Log("error decoding promotion statistics: %s", err)
			continue
		}
		if len(stats) == 0 {
			// The vendor answers 200 with an empty body when the stats are
			// not ready yet; back off before the next batch.
			if !lastBatch {
				if err := sleepCtx(ctx, c.cfg.PagePause); err != nil {
					return nil, err
				}
			}
			continue
		}

		for _, campaign := range stats {
			for _, day := range campaign.Days {
				for _, app := range day.Apps {
					for _, product := range app.Nm {
						product["date"] = day.Date
						product["advertId"] = campaign.AdvertID
						product["appType"] = app.AppType
						result = append(result, product)
					}
				}
			}
		}

		if !lastBatch {
			if err := sleepCtx(ctx, c.cfg.PagePause); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}
