package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "astrochart",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "astrochart",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "astrochart",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Chart-domain metrics
	ChartsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "astrochart",
		Subsystem: "chart",
		Name:      "builds_total",
		Help:      "Total chart builds by outcome",
	}, []string{"status"}) // ok | validation_error | computation_error

	ChartBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "astrochart",
		Subsystem: "chart",
		Name:      "build_duration_seconds",
		Help:      "Duration of a full chart computation",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	PhaseLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "astrochart",
		Subsystem: "chart",
		Name:      "phase_lookups_total",
		Help:      "Total lunar-phase lookups by outcome",
	}, []string{"status"})

	EphemerisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "astrochart",
		Subsystem: "ephemeris",
		Name:      "errors_total",
		Help:      "Total ephemeris provider failures by step",
	}, []string{"step"}) // julian_day | body | houses | phases

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "astrochart",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "astrochart",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
