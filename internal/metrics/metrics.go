// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created by the fulfillment orchestrator.",
	})

	OrdersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Orders that reached completed status.",
	})

	// OrdersStalled counts finalize attempts that left an order in the
	// processing partial-failure state. There is no automatic retry, so a
	// growing counter means operators need to intervene.
	OrdersStalled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_stalled_total",
		Help: "Finalize attempts that ended with at least one failed line item.",
	})

	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Payments recorded, by payment type.",
	}, []string{"type"})

	PaymentsApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_approved_total",
		Help: "Payments transitioned to paid.",
	})

	PaymentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_rejected_total",
		Help: "Payments transitioned to rejected.",
	})

	LineItemsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "line_items_failed_total",
		Help: "Line items whose processing failed, by line item type.",
	}, []string{"type"})

	EntitlementActivationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entitlement_activations_skipped_total",
		Help: "Entitlement creations skipped by the idempotency guard.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware records request latency and status for every route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
