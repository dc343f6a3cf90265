package fetch

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"wbsync/internal/wildberries/business/models"
)

const (
	advertCountPath   = "/adv/v1/promotion/count"
	advertDetailsPath = "/adv/v1/promotion/adverts"
)

// unknownLabel is the sentinel for enum codes the decode tables do not know.
// Unrecognized codes never fail the fetch; the vendor adds codes silently.
const unknownLabel = "Неизвестно"

var advertTypeLabels = map[int64]string{
	4: "В каталоге",
	5: "В карточке товара",
	6: "В поиске",
	7: "На главной странице",
	8: "Авто-акция",
	9: "Аукцион",
}

var advertStatusLabels = map[int64]string{
	-1: "Удаляется",
	4:  "Ожидает запуска",
	7:  "Завершена",
	8:  "Отказ",
	9:  "Идут показы",
	11: "Приостановлена",
}

var paymentTypeLabels = map[string]string{
	"cpm": "За показы",
	"cpo": "За заказы",
}

type advertCountResponse struct {
	Adverts []struct {
		AdvertList []struct {
			AdvertID int64 `json:"advertId"`
		} `json:"advert_list"`
	} `json:"adverts"`
}

// advertIDs lists all campaign ids across the grouped count endpoint.
func (c *Client) advertIDs(ctx context.Context) ([]int64, error) {
	status, raw, err := c.call(ctx, http.MethodGet, c.cfg.AdvertBase+advertCountPath, nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Log("error on getting advertising campaigns: status %d, response: %s", status, raw)
		return nil, nil
	}

	var payload advertCountResponse
	if err := models.DecodeJSON(bytes.NewReader(raw), &payload); err != nil {
		c.log.Log("error decoding advertising campaign list: %s", err)
		return nil, nil
	}

	var ids []int64
	for _, group := range payload.Adverts {
		for _, adv := range group.AdvertList {
			ids = append(ids, adv.AdvertID)
		}
	}
	return ids, nil
}

// AdvertDetails fetches campaign details in batches, decodes the enum code
// fields into labels and unifies the two alternately named parameter
// sub-objects. Campaigns whose end time is on or after the cutoff (30 days
// back on first use, now otherwise) are returned as the id set eligible for
// the statistics pull that follows.
func (c *Client) AdvertDetails(ctx context.Context, firstUse bool) ([]models.Record, []int64, error) {
	ids, err := c.advertIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := sleepCtx(ctx, c.cfg.ListDetailPause); err != nil {
		return nil, nil, err
	}

	cutoff := c.now()
	if firstUse {
		cutoff = cutoff.Add(-30 * 24 * time.Hour)
	}

	target := c.cfg.AdvertBase + advertDetailsPath
	batch := c.cfg.AdvertBatchSize

	var result []models.Record
	var eligible []int64
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}

		if err := c.detailLimiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
		status, raw, err := c.call(ctx, http.MethodPost, target, nil, ids[start:end])
		if err != nil {
			return nil, nil, err
		}
		if status != http.StatusOK {
			c.log.Log("error on getting advertising details: status %d, response: %s", status, raw)
			return []models.Record{}, eligible, nil
		}

		var entries []models.Record
		if err := models.DecodeJSON(bytes.NewReader(raw), &entries); err != nil {
			c.log.Log("error decoding advertising details: %s", err)
			return []models.Record{}, eligible, nil
		}

		for _, entry := range entries {
			normalizeAdvert(entry)
			if id, ok := c.eligibleAdvert(entry, cutoff); ok {
				eligible = append(eligible, id)
			}
			result = append(result, entry)
		}
	}

	return result, eligible, nil
}

// normalizeAdvert rewrites one raw campaign entry in place: parameter
// sub-objects get one name, enum codes become labels.
func normalizeAdvert(entry models.Record) {
	if v, ok := entry["autoParams"]; ok {
		entry["params"] = v
		delete(entry, "autoParams")
	}
	if v, ok := entry["unitedParams"]; ok {
		entry["params"] = v
		delete(entry, "unitedParams")
	}

	entry["type"] = decodeCode(entry, "type", advertTypeLabels)
	entry["status"] = decodeCode(entry, "status", advertStatusLabels)

	payment := unknownLabel
	if s, ok := models.String(entry, "paymentType"); ok {
		if label, ok := paymentTypeLabels[s]; ok {
			payment = label
		}
	}
	entry["paymentType"] = payment
}

func decodeCode(entry models.Record, key string, labels map[int64]string) string {
	n, ok := models.Number(entry, key)
	if !ok {
		return unknownLabel
	}
	code, err := n.Int64()
	if err != nil {
		return unknownLabel
	}
	label, ok := labels[code]
	if !ok {
		return unknownLabel
	}
	return label
}

// eligibleAdvert reports whether the campaign is still running relative to
// the cutoff and therefore worth asking statistics for.
func (c *Client) eligibleAdvert(entry models.Record, cutoff time.Time) (int64, bool) {
	raw, ok := models.String(entry, "endTime")
	if !ok {
		return 0, false
	}
	endTime, err := parseVendorTime(raw)
	if err != nil {
		c.log.Log("unparseable advert endTime %q: %s", raw, err)
		return 0, false
	}
	if endTime.Before(cutoff) {
		return 0, false
	}

	n, ok := models.Number(entry, "advertId")
	if !ok {
		return 0, false
	}
	id, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseVendorTime accepts the two timestamp spellings the advert API mixes.
func parseVendorTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", raw)
}
