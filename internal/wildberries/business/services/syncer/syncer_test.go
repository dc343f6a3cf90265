package syncer

import (
	"context"
	"errors"
	"io"
	"testing"

	"wbsync/internal/wildberries/business/models"
	"wbsync/internal/wildberries/business/services/fetch"
	"wbsync/internal/wildberries/storage"
	"wbsync/pkg/logger"
)

// stubFetcher answers every operation with canned rows and remembers which
// operations ran and with what flags.
type stubFetcher struct {
	calls       []string
	statsFirst  []bool
	advertIDs   []int64
	statsGotIDs []int64
	fail        map[string]error
}

func (f *stubFetcher) rows(name string, n int) ([]models.Record, error) {
	f.calls = append(f.calls, name)
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{"n": i}
	}
	return out, nil
}

func (f *stubFetcher) ProductCards(ctx context.Context) ([]models.Record, error) {
	return f.rows("product_cards", 2)
}

func (f *stubFetcher) ProductPrices(ctx context.Context) ([]models.Record, error) {
	return f.rows("product_prices", 2)
}

func (f *stubFetcher) Stats(ctx context.Context, kind fetch.StatsKind, firstUse bool) ([]models.Record, error) {
	f.statsFirst = append(f.statsFirst, firstUse)
	return f.rows(string(kind)+"_stats", 1)
}

func (f *stubFetcher) WarehouseRemains(ctx context.Context) ([]models.Record, error) {
	return f.rows("warehouse_remains", 1)
}

func (f *stubFetcher) FinancialReport(ctx context.Context, firstUse bool) ([]models.Record, error) {
	return f.rows("financial_report", 1)
}

func (f *stubFetcher) AdvertDetails(ctx context.Context, firstUse bool) ([]models.Record, []int64, error) {
	rows, err := f.rows("advert_details", 1)
	return rows, f.advertIDs, err
}

func (f *stubFetcher) AdvertStats(ctx context.Context, ids []int64, firstUse bool) ([]models.Record, error) {
	f.statsGotIDs = ids
	return f.rows("advert_stats", 1)
}

func (f *stubFetcher) PromoCalendar(ctx context.Context) ([]models.Record, error) {
	return f.rows("promo_calendar", 1)
}

// stubUpserter counts rows per table and can fail selected tables.
type stubUpserter struct {
	written map[string]int
	fail    map[string]error
}

func (u *stubUpserter) Upsert(ctx context.Context, ts storage.TableSchema, records []models.Record) (int, error) {
	if err := u.fail[ts.Name]; err != nil {
		return 0, err
	}
	if u.written == nil {
		u.written = map[string]int{}
	}
	u.written[ts.Name] += len(records)
	return len(records), nil
}

func newTestService(f Fetcher, u Upserter) *Service {
	return NewService(f, u, logger.NewLogger(io.Discard, "[test]"), 30)
}

func TestDailyGate(t *testing.T) {
	for runs := 0; runs <= 200; runs++ {
		want := runs%48 == 0
		if got := dailyGate(runs, 30); got != want {
			t.Errorf("dailyGate(%d, 30) = %t, want %t", runs, got, want)
		}
	}
	if !dailyGate(0, 60) || dailyGate(12, 60) || !dailyGate(24, 60) {
		t.Error("hourly cadence must gate on every 24th run")
	}
	// A cadence that does not divide the day rounds the gate up.
	if !dailyGate(0, 7) || dailyGate(205, 7) || !dailyGate(206, 7) {
		t.Error("7-minute cadence must gate on every 206th run")
	}
}

func TestRunCycleDailyRunsEverything(t *testing.T) {
	fetcher := &stubFetcher{advertIDs: []int64{11, 12}}
	writer := &stubUpserter{}
	service := newTestService(fetcher, writer)

	report := service.RunCycle(context.Background(), storage.Credential{UserID: "u1", Runs: 0})
	if failed := report.Failed(); len(failed) != 0 {
		t.Fatalf("failed steps: %v", failed)
	}
	if len(report.Steps) != 9 {
		t.Fatalf("got %d steps, want all 9 on a daily cycle", len(report.Steps))
	}

	wantOrder := []string{
		"product_cards", "product_prices", "orders_stats", "sales_stats",
		"warehouse_remains", "financial_report", "advert_details",
		"advert_stats", "promo_calendar",
	}
	if len(fetcher.calls) != len(wantOrder) {
		t.Fatalf("calls = %v", fetcher.calls)
	}
	for i, want := range wantOrder {
		if fetcher.calls[i] != want {
			t.Errorf("call %d = %s, want %s", i, fetcher.calls[i], want)
		}
	}

	// Eligible campaign ids flow from the details step into the stats step.
	if len(fetcher.statsGotIDs) != 2 || fetcher.statsGotIDs[0] != 11 {
		t.Errorf("advert stats got ids %v, want the details handoff", fetcher.statsGotIDs)
	}

	// Runs == 0 is first use for every windowed operation.
	for _, first := range fetcher.statsFirst {
		if !first {
			t.Error("stats pull did not see firstUse on runs=0")
		}
	}
}

func TestRunCycleRegularSkipsDailyOperations(t *testing.T) {
	fetcher := &stubFetcher{advertIDs: []int64{11}}
	writer := &stubUpserter{}
	service := newTestService(fetcher, writer)

	report := service.RunCycle(context.Background(), storage.Credential{UserID: "u1", Runs: 1})
	if len(report.Steps) != 7 {
		t.Fatalf("got %d steps, want 7 on a non-daily cycle", len(report.Steps))
	}
	for _, name := range fetcher.calls {
		if name == "financial_report" || name == "advert_stats" {
			t.Errorf("daily operation %s ran on a gated cycle", name)
		}
	}
	for _, first := range fetcher.statsFirst {
		if first {
			t.Error("stats pull saw firstUse on runs=1")
		}
	}
}

func TestRunCycleIsolatesFailures(t *testing.T) {
	fetchErr := errors.New("vendor unreachable")
	writeErr := errors.New("constraint violation")
	fetcher := &stubFetcher{
		advertIDs: []int64{11},
		fail:      map[string]error{"product_prices": fetchErr},
	}
	writer := &stubUpserter{
		fail: map[string]error{storage.WarehousesReportSchema.Name: writeErr},
	}
	service := newTestService(fetcher, writer)

	report := service.RunCycle(context.Background(), storage.Credential{UserID: "u1", Runs: 0})

	failed := report.Failed()
	if len(failed) != 2 {
		t.Fatalf("failed = %v, want exactly the two broken steps", failed)
	}
	if failed[0].Name != "product_prices" || !errors.Is(failed[0].Err, fetchErr) {
		t.Errorf("first failure = %+v", failed[0])
	}
	if failed[1].Name != "warehouse_remains" || !errors.Is(failed[1].Err, writeErr) {
		t.Errorf("second failure = %+v", failed[1])
	}

	// Everything downstream of the failures still ran and persisted.
	if writer.written[storage.OrdersStatsSchema.Name] != 1 {
		t.Error("orders stats not persisted after the prices failure")
	}
	if writer.written[storage.PromoCalendarSchema.Name] != 1 {
		t.Error("promo calendar not persisted after the warehouse failure")
	}
	if len(report.Steps) != 9 {
		t.Errorf("got %d steps, want the full cycle attempted", len(report.Steps))
	}
}

func TestRunCycleAdvertStatsAfterEmptyDetails(t *testing.T) {
	fetcher := &stubFetcher{advertIDs: nil}
	writer := &stubUpserter{}
	service := newTestService(fetcher, writer)

	report := service.RunCycle(context.Background(), storage.Credential{UserID: "u1", Runs: 48})
	if failed := report.Failed(); len(failed) != 0 {
		t.Fatalf("failed steps: %v", failed)
	}
	if fetcher.statsGotIDs != nil {
		t.Errorf("advert stats got ids %v, want none", fetcher.statsGotIDs)
	}
}
