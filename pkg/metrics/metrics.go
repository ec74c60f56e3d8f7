package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
type Metrics struct {
	serviceName string

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBIdleConnections  *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	BookingTransitionsTotal *prometheus.CounterVec
	CompletionSweepsTotal   *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry создаёт метрики и регистрирует их в переданном реестре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path"},
		),

		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query latency",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"service", "operation"},
		),
		DBOpenConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "db_open_connections",
				Help: "Number of established connections",
			},
			[]string{"service"},
		),
		DBInUseConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "db_in_use_connections",
				Help: "Number of connections currently in use",
			},
			[]string{"service"},
		),
		DBIdleConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "db_idle_connections",
				Help: "Number of idle connections",
			},
			[]string{"service"},
		),
		DBWaitCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "db_wait_count",
				Help: "Total number of connections waited for",
			},
			[]string{"service"},
		),

		BookingTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_transitions_total",
				Help: "Booking lifecycle transitions by action and outcome",
			},
			[]string{"service", "action", "result"},
		),
		CompletionSweepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_completion_sweeps_total",
				Help: "Completion sweeps by outcome",
			},
			[]string{"service", "result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBIdleConnections,
		m.DBWaitCount,
		m.BookingTransitionsTotal,
		m.CompletionSweepsTotal,
	)

	return m
}

// ServiceName возвращает имя сервиса, которым помечаются метрики
func (m *Metrics) ServiceName() string {
	return m.serviceName
}

// ObserveHTTPRequest фиксирует обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// ObserveQuery фиксирует длительность SQL запроса
func (m *Metrics) ObserveQuery(operation string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
}

// RecordTransition фиксирует попытку перехода бронирования (result: ok, ineligible, invalid_state, conflict, not_found, error)
func (m *Metrics) RecordTransition(action, result string) {
	m.BookingTransitionsTotal.WithLabelValues(m.serviceName, action, result).Inc()
}

// RecordSweep фиксирует прогон завершения прошедших уроков
func (m *Metrics) RecordSweep(result string) {
	m.CompletionSweepsTotal.WithLabelValues(m.serviceName, result).Inc()
}
