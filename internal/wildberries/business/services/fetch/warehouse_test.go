package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWarehouseRemainsFullFlow(t *testing.T) {
	var submits, polls, downloads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/warehouse_remains":
			submits++
			if submits == 1 {
				// Task creation shares the rate budget with other reports.
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			if r.URL.Query().Get("groupByBarcode") != "true" {
				t.Errorf("missing grouping flag: %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, `{"data":{"taskId":"task-42"}}`)
		case strings.HasSuffix(r.URL.Path, "/tasks/task-42/status"):
			polls++
			if polls < 3 {
				fmt.Fprint(w, `{"data":{"status":"processing"}}`)
				return
			}
			fmt.Fprint(w, `{"data":{"status":"done"}}`)
		case strings.HasSuffix(r.URL.Path, "/tasks/task-42/download"):
			downloads++
			if downloads == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `[{"barcode":"b1","quantityWarehousesFull":5},{"barcode":"b2","quantityWarehousesFull":0}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	fixedNow(client, time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC))

	rows, err := client.WarehouseRemains(context.Background())
	if err != nil {
		t.Fatalf("WarehouseRemains: %v", err)
	}
	if submits != 2 || downloads != 2 {
		t.Errorf("submits=%d downloads=%d, want one 429 retry each", submits, downloads)
	}
	if polls != 3 {
		t.Errorf("polls=%d, want 3", polls)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row[CaptureTimeColumn] != "2025-06-15T09:30:00" {
			t.Errorf("capture time = %v, want the pinned clock stamped on every row", row[CaptureTimeColumn])
		}
	}
}

func TestWarehouseRemainsMissingTaskID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	rows, err := client.WarehouseRemains(context.Background())
	if err != nil {
		t.Fatalf("missing task id must not propagate, got %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
