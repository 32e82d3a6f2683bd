package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the back office.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	loansIssued      prometheus.Counter
	amountDisbursed  prometheus.Counter
	paymentsRecorded prometheus.Counter
	amountReceived   prometheus.Counter
	requestsTotal    *prometheus.CounterVec
}

// OpsSnapshot is a point-in-time read of the portfolio counters, served by
// the GET /v1/metrics/summary endpoint.
type OpsSnapshot struct {
	LoansIssued      int64   `json:"loansIssued"`
	AmountDisbursed  float64 `json:"amountDisbursed"`
	PaymentsRecorded int64   `json:"paymentsRecorded"`
	AmountReceived   float64 `json:"amountReceived"`
	ErrorRate        float64 `json:"errorRate"`
	CacheHitRate     float64 `json:"cacheHitRate"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emprestai_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emprestai_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emprestai_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emprestai_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		loansIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "emprestai_loans_issued_total",
				Help: "Total loans disbursed.",
			},
		),
		amountDisbursed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "emprestai_amount_disbursed_total",
				Help: "Total principal disbursed.",
			},
		),
		paymentsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "emprestai_payments_recorded_total",
				Help: "Total loan payments recorded.",
			},
		),
		amountReceived: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "emprestai_amount_received_total",
				Help: "Total payment amount received.",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emprestai_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordLoanIssued records a disbursement.
func (m *Metrics) RecordLoanIssued(principal float64) {
	m.loansIssued.Inc()
	m.amountDisbursed.Add(principal)
}

// RecordPayment records a received payment.
func (m *Metrics) RecordPayment(amount float64) {
	m.paymentsRecorded.Inc()
	m.amountReceived.Add(amount)
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// Snapshot reads the current counter values for the ops summary endpoint.
func (m *Metrics) Snapshot() *OpsSnapshot {
	totalRequests := counterVecValue(m.requestsTotal, "success") +
		counterVecValue(m.requestsTotal, "error")
	errorCount := counterVecValue(m.requestsTotal, "error")
	cacheHits := counterVecValue(m.cacheHits, "cep")
	cacheMisses := counterVecValue(m.cacheMisses, "cep")

	errorRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &OpsSnapshot{
		LoansIssued:      int64(counterValue(m.loansIssued)),
		AmountDisbursed:  counterValue(m.amountDisbursed),
		PaymentsRecorded: int64(counterValue(m.paymentsRecorded)),
		AmountReceived:   counterValue(m.amountReceived),
		ErrorRate:        errorRate,
		CacheHitRate:     cacheHitRate,
	}
}

// counterVecValue extracts the current float64 value from a CounterVec for a
// given label.
func counterVecValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
