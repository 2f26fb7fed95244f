package observability

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthRejectionsTotal *prometheus.CounterVec

	// Inventory metrics
	StockMovementsTotal *prometheus.CounterVec
	StockUnitsTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sweetshop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AuthRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_auth_rejections_total",
				Help: "Requests rejected by the access gate, by reason",
			},
			[]string{"reason"},
		),

		StockMovementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_stock_movements_total",
				Help: "Successful purchase/restock operations",
			},
			[]string{"kind"},
		),
		StockUnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_stock_units_total",
				Help: "Units moved by purchase/restock operations",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthRejectionsTotal,
		m.StockMovementsTotal,
		m.StockUnitsTotal,
	)
	return m
}

// RegisterDBStats exports connection pool stats of db
func (m *Metrics) RegisterDBStats(db *sql.DB) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, "sweetshop"))
}

func (m *Metrics) RecordAuthRejection(reason string) {
	m.AuthRejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordStockMovement(kind string, qty int64) {
	m.StockMovementsTotal.WithLabelValues(kind).Inc()
	m.StockUnitsTotal.WithLabelValues(kind).Add(float64(qty))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
