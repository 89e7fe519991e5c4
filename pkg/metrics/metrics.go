package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcomes used as the status label of RecordsPersisted.
const (
	StatusWritten   = "written"
	StatusSkipped   = "skipped"
	StatusDuplicate = "duplicate"
	StatusFailed    = "failed"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RecordsPersisted    *prometheus.CounterVec
	ColumnsAdded        *prometheus.CounterVec
	PersistDuration     *prometheus.HistogramVec
	RunsTotal           *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsPersisted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "records_persisted_total",
			Help: "Total number of records handled by the persist pipeline.",
		}, []string{"table", "status"}), // status: written, skipped, duplicate, failed
		ColumnsAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "columns_added_total",
			Help: "Total number of columns added by schema reconciliation.",
		}, []string{"table"}),
		PersistDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "persist_duration_seconds",
			Help:    "Duration of reconcile plus insert for one record.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"table"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "runs_total",
			Help: "Total number of dataset runs.",
		}, []string{"dataset", "status"}), // status: completed, aborted
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncRecord(table, status string) {
	if m == nil {
		return
	}
	m.RecordsPersisted.WithLabelValues(table, status).Inc()
}

func (m *Metrics) AddColumns(table string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ColumnsAdded.WithLabelValues(table).Add(float64(n))
}

func (m *Metrics) ObservePersist(table string, d time.Duration) {
	if m == nil {
		return
	}
	m.PersistDuration.WithLabelValues(table).Observe(d.Seconds())
}

func (m *Metrics) IncRun(dataset, status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(dataset, status).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
