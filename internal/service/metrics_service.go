package service

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus collectors for the exam engine.
type MetricsService struct {
	registry *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec

	workflowTransitions *prometheus.CounterVec
	conflictDetection   prometheus.Histogram
	resultsGeneration   prometheus.Histogram
	notificationsTotal  *prometheus.CounterVec
}

// NewMetricsService registers all collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsService{
		registry: registry,
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		workflowTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Successful workflow transitions by entity and action",
		}, []string{"entity", "action"}),
		conflictDetection: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "conflict_detection_seconds",
			Help:    "Duration of datesheet conflict detection runs",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5},
		}),
		resultsGeneration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "results_generation_seconds",
			Help:    "Duration of exam result generation runs",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30},
		}),
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notification dispatch outcomes",
		}, []string{"type", "outcome"}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *MetricsService) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveHTTP records one completed HTTP request.
func (m *MetricsService) ObserveHTTP(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, path, code).Inc()
}

// IncWorkflowTransition counts one successful transition.
func (m *MetricsService) IncWorkflowTransition(entity, action string) {
	m.workflowTransitions.WithLabelValues(entity, action).Inc()
}

// ObserveConflictDetection records the duration of one detection run.
func (m *MetricsService) ObserveConflictDetection(duration time.Duration) {
	m.conflictDetection.Observe(duration.Seconds())
}

// ObserveResultsGeneration records the duration of one generation run.
func (m *MetricsService) ObserveResultsGeneration(duration time.Duration) {
	m.resultsGeneration.Observe(duration.Seconds())
}

// IncNotification counts one dispatch outcome ("sent" or "failed").
func (m *MetricsService) IncNotification(eventType, outcome string) {
	m.notificationsTotal.WithLabelValues(eventType, outcome).Inc()
}
