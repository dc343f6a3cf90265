package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"wbsync/internal/wildberries/business/models"
)

const cardsListPath = "/content/v2/get/cards/list"

type cardsCursor struct {
	Limit     int         `json:"limit"`
	NmID      json.Number `json:"nmID,omitempty"`
	UpdatedAt string      `json:"updatedAt,omitempty"`
}

type cardsRequest struct {
	Settings struct {
		Cursor cardsCursor `json:"cursor"`
		Filter struct {
			WithPhoto int `json:"withPhoto"`
		} `json:"filter"`
	} `json:"settings"`
}

type cardsResponse struct {
	Cards  []models.Record `json:"cards"`
	Cursor struct {
		Total     int         `json:"total"`
		NmID      json.Number `json:"nmID"`
		UpdatedAt string      `json:"updatedAt"`
	} `json:"cursor"`
}

// ProductCards pulls the full card catalog through the server-issued
// {nmID, updatedAt} cursor. The last page is recognized by the page total
// dropping below the page limit.
func (c *Client) ProductCards(ctx context.Context) ([]models.Record, error) {
	limit := c.cfg.CardsPageLimit
	url := c.cfg.ContentBase + cardsListPath

	var request cardsRequest
	request.Settings.Cursor.Limit = limit
	request.Settings.Filter.WithPhoto = -1

	var result []models.Record
	for {
		status, raw, err := c.call(ctx, http.MethodPost, url, nil, request)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.log.Log("error on getting product cards: status %d, response: %s", status, raw)
			return []models.Record{}, nil
		}

		var page cardsResponse
		if err := models.DecodeJSON(bytes.NewReader(raw), &page); err != nil {
			c.log.Log("error decoding product cards page: %s", err)
			return []models.Record{}, nil
		}

		result = append(result, page.Cards...)
		if page.Cursor.Total < limit {
			break
		}
		request.Settings.Cursor.NmID = page.Cursor.NmID
		request.Settings.Cursor.UpdatedAt = page.Cursor.UpdatedAt
	}

	return result, nil
}
