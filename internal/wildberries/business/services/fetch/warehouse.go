package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"wbsync/internal/wildberries/business/models"
)

const warehouseRemainsPath = "/api/v1/warehouse_remains"

// CaptureTimeColumn is stamped onto every warehouse row; the remains feed is
// a snapshot and rows are only unique per capture time.
const CaptureTimeColumn = "datetime"

const captureTimeFormat = "2006-01-02T15:04:05"

type warehouseTaskResponse struct {
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type warehouseStatusResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

// WarehouseRemains drives the asynchronous warehouse report: submit a
// generation task (retrying submission on 429), poll its status until done,
// then download the result. Every row is stamped with the capture time.
func (c *Client) WarehouseRemains(ctx context.Context) ([]models.Record, error) {
	base := c.cfg.AnalyticsBase + warehouseRemainsPath

	query := url.Values{}
	for _, group := range []string{"groupByBrand", "groupBySubject", "groupBySize", "groupByNm", "groupByBarcode", "groupBySa"} {
		query.Set(group, "true")
	}

	status, raw, err := c.callRetry429(ctx, http.MethodGet, base, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Log("error on creating warehouse report: status %d, response: %s", status, raw)
		return []models.Record{}, nil
	}

	var task warehouseTaskResponse
	if err := models.DecodeJSON(bytes.NewReader(raw), &task); err != nil || task.Data.TaskID == "" {
		c.log.Log("warehouse report task id missing, maybe API is updated? response: %s", raw)
		return []models.Record{}, nil
	}
	reportURL := base + "/tasks/" + task.Data.TaskID

	for {
		status, raw, err = c.call(ctx, http.MethodGet, reportURL+"/status", nil, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.log.Log("error on polling warehouse report: status %d, response: %s", status, raw)
			return []models.Record{}, nil
		}
		var st warehouseStatusResponse
		if err := models.DecodeJSON(bytes.NewReader(raw), &st); err != nil {
			c.log.Log("error decoding warehouse report status: %s", err)
			return []models.Record{}, nil
		}
		if st.Data.Status == "done" {
			break
		}
		if err := sleepCtx(ctx, c.cfg.StatusPollInterval); err != nil {
			return nil, err
		}
	}

	status, raw, err = c.callRetry429(ctx, http.MethodGet, reportURL+"/download", nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Log("error on downloading warehouse report: status %d, response: %s", status, raw)
		return []models.Record{}, nil
	}

	var rows []models.Record
	if err := models.DecodeJSON(bytes.NewReader(raw), &rows); err != nil {
		c.log.Log("error decoding warehouse report: %s", err)
		return []models.Record{}, nil
	}

	capturedAt := c.now().Format(captureTimeFormat)
	for _, row := range rows {
		row[CaptureTimeColumn] = capturedAt
	}
	return rows, nil
}
