package syncer

import (
	"context"
	"math"
	"time"

	"wbsync/internal/wildberries/business/models"
	"wbsync/internal/wildberries/business/services/fetch"
	"wbsync/internal/wildberries/storage"
	"wbsync/metrics"
	"wbsync/pkg/logger"
)

// minutesPerDay / base cadence gives how many elapsed cycles make one day.
const minutesPerDay = 1440

// Fetcher is the vendor client surface the orchestrator drives. It is an
// interface so cycle behavior is testable without a vendor.
type Fetcher interface {
	ProductCards(ctx context.Context) ([]models.Record, error)
	ProductPrices(ctx context.Context) ([]models.Record, error)
	Stats(ctx context.Context, kind fetch.StatsKind, firstUse bool) ([]models.Record, error)
	WarehouseRemains(ctx context.Context) ([]models.Record, error)
	FinancialReport(ctx context.Context, firstUse bool) ([]models.Record, error)
	AdvertDetails(ctx context.Context, firstUse bool) ([]models.Record, []int64, error)
	AdvertStats(ctx context.Context, ids []int64, firstUse bool) ([]models.Record, error)
	PromoCalendar(ctx context.Context) ([]models.Record, error)
}

// Upserter is the persistence sink contract (see storage.Writer).
type Upserter interface {
	Upsert(ctx context.Context, ts storage.TableSchema, records []models.Record) (int, error)
}

// StepResult is the outcome of one operation within a cycle.
type StepResult struct {
	Name string
	Rows int
	Err  error
}

// CycleReport names each operation's outcome for one credential's cycle.
type CycleReport struct {
	UserID string
	Steps  []StepResult
}

// Failed returns the steps that did not complete.
func (r CycleReport) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Err != nil {
			failed = append(failed, step)
		}
	}
	return failed
}

// Service runs one full synchronization cycle for one credential. The nine
// operations run sequentially: they share the vendor's rate budgets and the
// advert eligibility handoff, so they must not overlap.
type Service struct {
	fetcher     Fetcher
	writer      Upserter
	log         logger.Logger
	baseCadence int
}

func NewService(fetcher Fetcher, writer Upserter, log logger.Logger, baseCadenceMinutes int) *Service {
	if baseCadenceMinutes <= 0 {
		baseCadenceMinutes = 30
	}
	return &Service{
		fetcher:     fetcher,
		writer:      writer,
		log:         log,
		baseCadence: baseCadenceMinutes,
	}
}

// dailyGate reports whether the daily endpoints run this cycle. With the
// 30-minute base cadence this fires on every 48th elapsed cycle.
func dailyGate(runs, baseCadenceMinutes int) bool {
	every := int(math.Ceil(float64(minutesPerDay) / float64(baseCadenceMinutes)))
	return runs%every == 0
}

// RunCycle executes every fetch operation for cred in order, handing each
// result to the writer. Failures are contained per operation: one broken
// endpoint or one failed write never aborts the rest of the cycle.
func (s *Service) RunCycle(ctx context.Context, cred storage.Credential) CycleReport {
	report := CycleReport{UserID: cred.UserID}
	firstUse := cred.FirstUse()
	daily := dailyGate(cred.Runs, s.baseCadence)

	s.log.Log("updating data for user %s (runs=%d, firstUse=%t, daily=%t)", cred.UserID, cred.Runs, firstUse, daily)

	report.add(s.step(ctx, "product_cards", storage.ProductCardsSchema, s.fetcher.ProductCards))
	report.add(s.step(ctx, "product_prices", storage.ProductPricesSchema, s.fetcher.ProductPrices))
	report.add(s.step(ctx, "orders_stats", storage.OrdersStatsSchema, func(ctx context.Context) ([]models.Record, error) {
		return s.fetcher.Stats(ctx, fetch.OrdersStats, firstUse)
	}))
	report.add(s.step(ctx, "sales_stats", storage.SalesStatsSchema, func(ctx context.Context) ([]models.Record, error) {
		return s.fetcher.Stats(ctx, fetch.SalesStats, firstUse)
	}))
	report.add(s.step(ctx, "warehouse_remains", storage.WarehousesReportSchema, s.fetcher.WarehouseRemains))

	if daily {
		report.add(s.step(ctx, "financial_report", storage.FinancialReportSchema, func(ctx context.Context) ([]models.Record, error) {
			return s.fetcher.FinancialReport(ctx, firstUse)
		}))
	}

	// Advert details feed the eligible-campaign ids into the statistics
	// pull below; the handoff is an explicit value, not client state.
	var eligible []int64
	report.add(s.step(ctx, "advert_details", storage.ProductAdvertsSchema, func(ctx context.Context) ([]models.Record, error) {
		records, ids, err := s.fetcher.AdvertDetails(ctx, firstUse)
		eligible = ids
		return records, err
	}))

	if daily {
		report.add(s.step(ctx, "advert_stats", storage.ProductPromosSchema, func(ctx context.Context) ([]models.Record, error) {
			return s.fetcher.AdvertStats(ctx, eligible, firstUse)
		}))
	}

	report.add(s.step(ctx, "promo_calendar", storage.PromoCalendarSchema, s.fetcher.PromoCalendar))

	metrics.RecordCycle(len(report.Failed()) > 0)
	s.log.Log("cycle done for user %s: %d/%d operations succeeded", cred.UserID, len(report.Steps)-len(report.Failed()), len(report.Steps))
	return report
}

func (r *CycleReport) add(step StepResult) {
	r.Steps = append(r.Steps, step)
}

// step runs one fetch-then-write operation under the per-operation guard.
func (s *Service) step(ctx context.Context, name string, ts storage.TableSchema, fetchFn func(context.Context) ([]models.Record, error)) StepResult {
	started := time.Now()
	result := StepResult{Name: name}

	records, err := fetchFn(ctx)
	if err == nil {
		result.Rows, err = s.writer.Upsert(ctx, ts, records)
	}
	result.Err = err

	metrics.RecordOperation(name, err, time.Since(started))
	if err != nil {
		s.log.Log("error while running %s: %s, skipping...", name, err)
		return result
	}

	metrics.RecordRows(ts.Name, result.Rows)
	s.log.Log("%s: %d rows written", name, result.Rows)
	return result
}
