package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "growdash_"

// Metrics owns its registry so several backends can live in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
	CommandsEnqueued *prometheus.CounterVec
	CommandsServed   prometheus.Counter
	ResultReports    *prometheus.CounterVec
	Heartbeats       prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CommandsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_enqueued_total",
				Help: "Commands queued for devices by type",
			},
			[]string{"type"},
		),
		CommandsServed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_served_total",
				Help: "Pending commands handed to agents",
			},
		),
		ResultReports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "result_reports_total",
				Help: "Accepted agent status reports by status",
			},
			[]string{"status"},
		),
		Heartbeats: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "heartbeats_total",
				Help: "Agent heartbeats received",
			},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPLatency, m.CommandsEnqueued, m.CommandsServed, m.ResultReports, m.Heartbeats,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
