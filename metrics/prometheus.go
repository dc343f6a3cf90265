package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_operations_total",
			Help: "Total number of sync operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	syncOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_operation_duration_seconds",
			Help:    "Histogram of sync operation durations.",
			Buckets: []float64{0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"operation"},
	)
	rowsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rows_written_total",
			Help: "Total number of rows upserted per target table.",
		},
		[]string{"table"},
	)
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_cycles_total",
			Help: "Total number of completed sync cycles by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(syncOperationsTotal)
	prometheus.MustRegister(syncOperationDuration)
	prometheus.MustRegister(rowsWrittenTotal)
	prometheus.MustRegister(cyclesTotal)
}

// RecordOperation записывает метрики для одной операции синхронизации.
func RecordOperation(operation string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	syncOperationsTotal.WithLabelValues(operation, outcome).Inc()
	syncOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRows учитывает число записанных строк по таблице.
func RecordRows(table string, rows int) {
	rowsWrittenTotal.WithLabelValues(table).Add(float64(rows))
}

// RecordCycle учитывает завершённый цикл синхронизации.
func RecordCycle(failed bool) {
	outcome := "ok"
	if failed {
		outcome = "partial"
	}
	cyclesTotal.WithLabelValues(outcome).Inc()
}

// MetricsHandler возвращает HTTP-обработчик для экспорта метрик Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
