package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/ChicagoDave/polyplanner/pkg/result"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyplanner",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polyplanner",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polyplanner",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Planning metrics
	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyplanner",
		Subsystem: "planner",
		Name:      "plans_total",
		Help:      "Total completed plans by termination reason",
	}, []string{"termination"})

	PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "polyplanner",
		Subsystem: "planner",
		Name:      "plan_duration_seconds",
		Help:      "Wall time of a complete planning run",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	PlanCoverage = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "polyplanner",
		Subsystem: "planner",
		Name:      "coverage_percentage",
		Help:      "Structure coverage of the parcel per plan",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	PlanStructures = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "polyplanner",
		Subsystem: "planner",
		Name:      "structures",
		Help:      "Structures placed per plan",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	PlansRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polyplanner",
		Subsystem: "planner",
		Name:      "plans_rejected_total",
		Help:      "Plans rejected by input validation",
	})

	TerrainDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polyplanner",
		Subsystem: "terrain",
		Name:      "degraded_total",
		Help:      "Plans that fell back to flat buildable terrain",
	})
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

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// PlanObserver records planner outcomes into the package collectors.
type PlanObserver struct{}

func (PlanObserver) PlanCompleted(res *result.PlanningResult, elapsed time.Duration) {
	PlansTotal.WithLabelValues(string(res.TerminationReason)).Inc()
	PlanDuration.Observe(elapsed.Seconds())
	PlanCoverage.Observe(res.CoveragePercentage)
	PlanStructures.Observe(float64(len(res.Structures)))
}

func (PlanObserver) PlanRejected() { PlansRejected.Inc() }

func (PlanObserver) TerrainDegraded() { TerrainDegraded.Inc() }
