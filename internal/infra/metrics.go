package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics owns a private Prometheus registry with HTTP and sales metrics.
// It implements service.SaleRecorder.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesTotal      *prometheus.CounterVec
	unitsSold       *prometheus.CounterVec
	revenue         *prometheus.CounterVec
	salesRejected   *prometheus.CounterVec
	refundsTotal    prometheus.Counter
	jobsTotal       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpos_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockpos_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		salesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpos_sales_total",
			Help: "Completed sales by source.",
		}, []string{"source"}),
		unitsSold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpos_units_sold_total",
			Help: "Units sold by source.",
		}, []string{"source"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpos_sales_revenue_total",
			Help: "Sum of sale totals by source.",
		}, []string{"source"}),
		salesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpos_sales_rejected_total",
			Help: "Sales rejected before commit, by reason.",
		}, []string{"reason"}),
		refundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpos_refunds_total",
			Help: "Refunded sales.",
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpos_jobs_total",
			Help: "Background jobs by type and outcome.",
		}, []string{"type", "outcome"}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration,
		m.salesTotal, m.unitsSold, m.revenue, m.salesRejected, m.refundsTotal,
		m.jobsTotal,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves /metrics.
func (m *Metrics) Handler() http.Handler { return m.handler }

// Registry exposes the registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(route, method, code string, seconds float64) {
	m.requestsTotal.WithLabelValues(route, method, code).Inc()
	m.requestDuration.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) SaleCompleted(source string, units int, total decimal.Decimal) {
	m.salesTotal.WithLabelValues(source).Inc()
	m.unitsSold.WithLabelValues(source).Add(float64(units))
	m.revenue.WithLabelValues(source).Add(total.InexactFloat64())
}

func (m *Metrics) SaleRejected(reason string) { m.salesRejected.WithLabelValues(reason).Inc() }

func (m *Metrics) SaleRefunded() { m.refundsTotal.Inc() }

// JobFinished counts a background job outcome: "ok", "retry" or "dead".
func (m *Metrics) JobFinished(jobType, outcome string) {
	m.jobsTotal.WithLabelValues(jobType, outcome).Inc()
}

// TrackQueue exposes the length of a Redis-backed queue as
// stockpos_queue_depth{queue="..."}. depth runs on every scrape.
func (m *Metrics) TrackQueue(queue string, depth func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "stockpos_queue_depth",
		Help:        "Jobs waiting in a queue.",
		ConstLabels: prometheus.Labels{"queue": queue},
	}, depth))
}
