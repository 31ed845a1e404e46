package observability

import (
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels for the calculations counter.
const (
	OutcomeOverdueUnpaid = "overdue_unpaid"
	OutcomeOverdue       = "overdue"
	OutcomeCurrent       = "current"
)

// Metrics holds all Prometheus metrics for the billing service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	calculations    *prometheus.CounterVec
	statementsBuilt *prometheus.CounterVec
	totalsDrift     prometheus.Counter
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
				Name:    "billing_request_duration_seconds",
				Help:    "Duration of billing operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_external_errors_total",
				Help: "Total errors from the utilities backend.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		calculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_calculations_total",
				Help: "Invoice figure calculations by charge type and outcome.",
			},
			[]string{"charge_type", "outcome"},
		),
		statementsBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_statements_built_total",
				Help: "Invoice documents built by kind.",
			},
			[]string{"kind"},
		),
		totalsDrift: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "billing_grand_total_drift_total",
				Help: "Invoices whose backend grand total disagrees with the charge breakdown.",
			},
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

// RecordCalculation counts one computed set of figures.
func (m *Metrics) RecordCalculation(f domain.Figures) {
	outcome := OutcomeCurrent
	switch {
	case f.IsOverdue && f.IsUnpaid:
		outcome = OutcomeOverdueUnpaid
	case f.IsOverdue:
		outcome = OutcomeOverdue
	}
	m.calculations.WithLabelValues(f.ChargeType.String(), outcome).Inc()
	if f.GrandTotalDrift.Valid {
		m.totalsDrift.Inc()
	}
}

// IncrStatement counts a built document.
func (m *Metrics) IncrStatement(kind domain.DocumentKind) {
	m.statementsBuilt.WithLabelValues(string(kind)).Inc()
}

// GetBillingSnapshot returns the counters behind GET /v1/metrics/billing.
// Prometheus counters are cumulative, so the period is always all_time.
func (m *Metrics) GetBillingSnapshot() *domain.BillingMetrics {
	var calculations, overdueUnpaid float64
	forEachCounter(m.calculations, func(labels map[string]string, v float64) {
		calculations += v
		if labels["outcome"] == OutcomeOverdueUnpaid {
			overdueUnpaid += v
		}
	})

	var statements, backendErrors float64
	forEachCounter(m.statementsBuilt, func(_ map[string]string, v float64) { statements += v })
	forEachCounter(m.externalErrors, func(_ map[string]string, v float64) { backendErrors += v })

	hits := getCounterValue(m.cacheHits, "invoice")
	misses := getCounterValue(m.cacheMisses, "invoice")

	surchargeRatio := float64(0)
	if calculations > 0 {
		surchargeRatio = overdueUnpaid / calculations
	}
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.BillingMetrics{
		Calculations:     int64(calculations),
		OverdueUnpaid:    int64(overdueUnpaid),
		SurchargeApplied: surchargeRatio,
		StatementsBuilt:  int64(statements),
		BackendErrors:    int64(backendErrors),
		DriftedInvoices:  int64(counterValue(m.totalsDrift)),
		InvoiceCacheHit:  hitRate,
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// forEachCounter visits every label combination a CounterVec has seen.
func forEachCounter(cv *prometheus.CounterVec, fn func(labels map[string]string, v float64)) {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil || m.Counter == nil {
			continue
		}
		labels := make(map[string]string, len(m.Label))
		for _, lp := range m.Label {
			labels[lp.GetName()] = lp.GetValue()
		}
		fn(labels, m.Counter.GetValue())
	}
}
