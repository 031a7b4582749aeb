package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes recorded by ObserveFetch.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
)

// Metrics groups the collectors of one process. Each instance has its own
// registry, so tests do not collide with the default one.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter *prometheus.CounterVec
	FetchCounter   *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	PrefWrites     *prometheus.CounterVec
}

func NewMetrics(service string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: reg,

		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total requests by route, method, and status.",
				ConstLabels: constLabels,
			},
			[]string{"route", "method", "status"},
		),
		FetchCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "weather_fetches_total",
				Help:        "Weather lookups by provider and outcome (success, failure, stale).",
				ConstLabels: constLabels,
			},
			[]string{"provider", "outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "weather_fetch_duration_seconds",
				Help:        "Duration of weather lookups against the upstream API.",
				ConstLabels: constLabels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		PrefWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "preference_writes_total",
				Help:        "Preference writes by key.",
				ConstLabels: constLabels,
			},
			[]string{"key"},
		),
	}

	reg.MustRegister(m.RequestCounter, m.FetchCounter, m.FetchDuration, m.PrefWrites)
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// ObserveFetch records one completed lookup.
func (m *Metrics) ObserveFetch(provider, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.FetchCounter.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeStale {
		m.FetchDuration.WithLabelValues(provider).Observe(took.Seconds())
	}
}

// ObservePreferenceWrite counts a write of the given preference key.
func (m *Metrics) ObservePreferenceWrite(key string) {
	if m == nil {
		return
	}
	m.PrefWrites.WithLabelValues(key).Inc()
}

// Middleware counts every request except scrapes of /metrics.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.RequestCounter.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
