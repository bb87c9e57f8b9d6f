package folio

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eringen/folio/taskflow"
)

// metrics holds the Prometheus collectors of one App. Each App owns its
// registry so several apps can live in one process.
//
// Metrics:
//   - folio_http_requests_total{method,route,status}
//   - folio_http_request_duration_seconds{method,route}
//   - folio_contact_submissions_total{result}
//   - folio_taskflow_events_total{type}
type metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	contactSubmitted *prometheus.CounterVec
	taskEvents       *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		contactSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_contact_submissions_total",
			Help: "Contact form submissions by result",
		}, []string{"result"}), // success, error, invalid, throttled
		taskEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_taskflow_events_total",
			Help: "TaskFlow events published",
		}, []string{"type"}),
	}
}

// middleware records request counts and latencies by route pattern, so
// /:locale/blog/:slug/ is one series no matter how many posts exist.
func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if err != nil {
			status = http.StatusInternalServerError
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request().Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// handler serves the registry uncompressed; the Gzip middleware encodes it.
func (m *metrics) handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{DisableCompression: true}))
}

// countingBroker counts every event that reaches the underlying broker.
type countingBroker struct {
	taskflow.Broker
	events *prometheus.CounterVec
}

func (b countingBroker) Publish(ctx context.Context, evt taskflow.Event) error {
	if err := b.Broker.Publish(ctx, evt); err != nil {
		return err
	}
	b.events.WithLabelValues(string(evt.Type)).Inc()
	return nil
}
