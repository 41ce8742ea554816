// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// The default registry panics on duplicate registration.
	once sync.Once

	// HTTPRequestsTotal counts finished requests.
	// route is the gin route template, never the raw path.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	LinksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Short links created through the single create endpoint.",
		},
	)

	// BulkItemsTotal counts bulk items by outcome: created or failed.
	BulkItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_link_items_total",
			Help: "Bulk creation items by outcome.",
		},
		[]string{"outcome"},
	)

	// RedirectsTotal counts short code resolutions by outcome: found, not_found or error.
	RedirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Short link redirects by outcome.",
		},
		[]string{"outcome"},
	)
)

// Init registers every collector with the default registry, at most once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			LinksCreatedTotal,
			BulkItemsTotal,
			RedirectsTotal,
		)
	})
}

// Middleware records the HTTP collectors for every request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		HTTPInflightRequests.Inc()
		defer HTTPInflightRequests.Dec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
