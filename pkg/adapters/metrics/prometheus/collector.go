package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Extractor outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records the server's own metrics using Prometheus
type Collector struct {
	extractorRuns     *prometheus.CounterVec
	extractorDuration *prometheus.HistogramVec

	grafanaRequests *prometheus.CounterVec
	grafanaDuration *prometheus.HistogramVec
	grafanaInFlight prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Last served snapshot
	activeWorkers  prometheus.Gauge
	tasksPerSecond prometheus.Gauge
	cities         prometheus.Gauge
	countries      prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		extractorRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globe_extractor_runs_total",
				Help: "Total number of extractor runs by outcome",
			},
			[]string{"extractor", "outcome"},
		),
		extractorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "globe_extractor_duration_seconds",
				Help:    "Extractor duration in seconds, including the proxy call",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"extractor"},
		),
		grafanaRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globe_grafana_requests_total",
				Help: "Total number of requests sent to the Grafana query API",
			},
			[]string{"code", "method"},
		),
		grafanaDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "globe_grafana_request_duration_seconds",
				Help:    "Grafana query API request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"code"},
		),
		grafanaInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "globe_grafana_requests_in_flight",
				Help: "Number of Grafana query API requests in flight",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globe_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "globe_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		activeWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "globe_active_workers",
				Help: "Distinct active workers in the last served snapshot",
			},
		),
		tasksPerSecond: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "globe_tasks_per_second",
				Help: "Task completion rate in the last served snapshot",
			},
		),
		cities: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "globe_cities",
				Help: "Number of cities in the last served snapshot",
			},
		),
		countries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "globe_countries",
				Help: "Number of countries in the last served snapshot",
			},
		),
	}
}

// ObserveExtractor records one extractor run
func (c *Collector) ObserveExtractor(name string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.extractorRuns.WithLabelValues(name, outcome).Inc()
	c.extractorDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordSnapshot records the values of a served snapshot
func (c *Collector) RecordSnapshot(activeWorkers int64, tasksPerSecond float64, cities, countries int) {
	c.activeWorkers.Set(float64(activeWorkers))
	c.tasksPerSecond.Set(tasksPerSecond)
	c.cities.Set(float64(cities))
	c.countries.Set(float64(countries))
}

// ObserveHTTPRequest records one served HTTP request
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// InstrumentRoundTripper wraps next with Grafana client metrics
func (c *Collector) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(c.grafanaInFlight,
		promhttp.InstrumentRoundTripperCounter(c.grafanaRequests,
			promhttp.InstrumentRoundTripperDuration(c.grafanaDuration, next)))
}
