// Package metrics exposes Prometheus collectors for the pricing and
// reconciliation workflows.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "headwear"

var (
	// QuotesBuilt counts structured quotes produced by the quote builder.
	QuotesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quotes",
		Name:      "built_total",
		Help:      "Structured quotes produced by the step-by-step builder.",
	})

	// StageFallbacks counts pricing stages that substituted default values.
	StageFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quotes",
		Name:      "stage_fallbacks_total",
		Help:      "Pricing stages that fell back to default values.",
	}, []string{"stage"})

	// SagaStepFailures counts failed reconciliation writes by step.
	SagaStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "step_failures_total",
		Help:      "Reconciliation writes that failed, by saga and step.",
	}, []string{"saga", "step"})

	// StatusTransitions counts quote status changes.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "status_transitions_total",
		Help:      "Quote status transitions by target status and detection source.",
	}, []string{"status", "source"})

	// PDFCache counts quote PDF memo cache lookups.
	PDFCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pdf",
		Name:      "cache_lookups_total",
		Help:      "Quote PDF cache lookups by result.",
	}, []string{"result"})

	// TasksScheduled counts background side effects handed to the work queue.
	TasksScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "scheduled_total",
		Help:      "Background tasks scheduled, by task type and outcome.",
	}, []string{"task", "outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware records request latency labelled with the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
