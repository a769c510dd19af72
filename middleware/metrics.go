package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourusername/ember/core"
)

// Metrics counters and histograms, registered once at package init against
// the default Prometheus registry.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ember",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of requests processed, by method and status code.",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ember",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request handling latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

// Metrics returns a middleware that records request counts and latency
// histograms for every request that passes through it. Register it near
// the top of the chain (after Recovery) so timing covers the whole stack.
//
// Scrape the default Prometheus registry (promhttp.Handler) from a route
// registered outside the measured chain, or expose it on a separate port;
// neither is this package's concern.
func Metrics() core.Middleware {
	return func(next core.Handler) core.Handler {
		return func(c *core.Context) error {
			start := time.Now()

			err := next(c)

			status := c.StatusCode()
			if status == 0 {
				status = 200
			}
			statusLabel := strconv.Itoa(status)

			requestsTotal.WithLabelValues(c.Method(), statusLabel).Inc()
			requestDuration.WithLabelValues(c.Method(), statusLabel).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
