package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"wbsync/internal/wildberries/business/models"
)

const (
	promoCalendarBase      = "/api/v1/calendar"
	promotionsPath         = promoCalendarBase + "/promotions"
	promotionDetailsPath   = promotionsPath + "/details"
	promotionProductsPath  = promotionsPath + "/nomenclatures"
	promoCalendarEpoch     = "1970-01-01T00:00:00Z"
	promoCalendarTimestamp = "2006-01-02T15:04:05Z"
)

// regularPromoType is the only promotion subtype that carries an in-action
// product list.
const regularPromoType = "regular"

type promoListResponse struct {
	Data *struct {
		Promotions *[]struct {
			ID json.Number `json:"id"`
		} `json:"promotions"`
	} `json:"data"`
}

type promoDetailsResponse struct {
	Data *struct {
		Promotions *[]models.Record `json:"promotions"`
	} `json:"data"`
}

type promoProductsResponse struct {
	Data *struct {
		Nomenclatures *[]models.Record `json:"nomenclatures"`
	} `json:"data"`
}

// PromoCalendar pulls the promotion calendar for the all-time window: the
// base list, details in batches, and for regular promotions the in-promotion
// product list. Missing expected keys are treated as schema drift: fatal for
// the base list and details, a degraded empty sub-list for products.
func (c *Client) PromoCalendar(ctx context.Context) ([]models.Record, error) {
	base := c.cfg.CalendarBase

	query := url.Values{}
	query.Set("startDateTime", promoCalendarEpoch)
	query.Set("endDateTime", c.now().Format(promoCalendarTimestamp))
	query.Set("allPromo", "false")

	if err := c.calendarLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	status, raw, err := c.call(ctx, http.MethodGet, base+promotionsPath, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Log("error on getting promotions list: status %d, response: %s", status, raw)
		return []models.Record{}, nil
	}

	var list promoListResponse
	if err := models.DecodeJSON(bytes.NewReader(raw), &list); err != nil || list.Data == nil || list.Data.Promotions == nil {
		c.log.Log("promotions list structure changed, maybe API is updated? response: %s", raw)
		return []models.Record{}, nil
	}

	ids := make([]json.Number, 0, len(*list.Data.Promotions))
	for _, entry := range *list.Data.Promotions {
		ids = append(ids, entry.ID)
	}

	batch := c.cfg.PromoBatchSize
	var result []models.Record
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}

		detailsQuery := url.Values{}
		for _, id := range ids[start:end] {
			detailsQuery.Add("promotionIDs", id.String())
		}

		if err := c.calendarLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		status, raw, err := c.call(ctx, http.MethodGet, base+promotionDetailsPath, detailsQuery, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.log.Log("error on getting promotion details: status %d, response: %s", status, raw)
			return []models.Record{}, nil
		}

		var details promoDetailsResponse
		if err := models.DecodeJSON(bytes.NewReader(raw), &details); err != nil || details.Data == nil || details.Data.Promotions == nil {
			c.log.Log("promotion details structure changed, maybe API is updated? response: %s", raw)
			return []models.Record{}, nil
		}

		for _, promo := range *details.Data.Promotions {
			if kind, _ := models.String(promo, "type"); kind == regularPromoType {
				products, err := c.promoProducts(ctx, promo)
				if err != nil {
					return nil, err
				}
				promo["nomenclatures"] = products
			} else {
				promo["nomenclatures"] = []models.Record{}
			}
			result = append(result, promo)
		}
	}

	return result, nil
}

// promoProducts fetches the in-action product list of one regular promotion.
// Failures degrade to an empty list; one broken promotion must not sink the
// whole calendar.
func (c *Client) promoProducts(ctx context.Context, promo models.Record) ([]models.Record, error) {
	id, ok := models.Number(promo, "id")
	if !ok {
		c.log.Log("WARNING: promotion without id, skipping nomenclatures")
		return []models.Record{}, nil
	}

	query := url.Values{}
	query.Set("promotionID", id.String())
	query.Set("inAction", strconv.FormatBool(true))

	if err := c.calendarLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	status, raw, err := c.call(ctx, http.MethodGet, c.cfg.CalendarBase+promotionProductsPath, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Log("WARNING: error on getting nomenclatures for promotion %s: status %d", id, status)
		return []models.Record{}, nil
	}

	var products promoProductsResponse
	if err := models.DecodeJSON(bytes.NewReader(raw), &products); err != nil || products.Data == nil || products.Data.Nomenclatures == nil {
		c.log.Log("WARNING: nomenclatures unavailable for promotion %s", id)
		return []models.Record{}, nil
	}
	return *products.Data.Nomenclatures, nil
}
