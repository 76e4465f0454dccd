// Package metrics exposes Prometheus counters for gamification events and
// HTTP traffic on a private registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"wolontariat/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wolontariat"

type Metrics struct {
	registry *prometheus.Registry

	badgeUnlocks      *prometheus.CounterVec
	enrollmentChanges *prometheus.CounterVec
	ratingsAdded      prometheus.Counter
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		badgeUnlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badge_unlocks_total",
			Help:      "Badges unlocked, by badge id.",
		}, []string{"badge"}),
		enrollmentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollment_changes_total",
			Help:      "Enrollment state changes, by resulting state.",
		}, []string{"state"}),
		ratingsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_added_total",
			Help:      "Ratings stored.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.badgeUnlocks,
		m.enrollmentChanges,
		m.ratingsAdded,
		m.requests,
		m.requestDuration,
	)
	return m
}

// Publish counts a gamification event; it sits next to the real publishers
func (m *Metrics) Publish(_ context.Context, event models.GamificationEvent) error {
	switch event.Type {
	case models.EventBadgeUnlocked:
		m.badgeUnlocks.WithLabelValues(event.BadgeID).Inc()
	case models.EventEnrollmentChanged:
		m.enrollmentChanges.WithLabelValues(event.State).Inc()
	case models.EventRatingAdded:
		m.ratingsAdded.Inc()
	}
	return nil
}

// Middleware records request counts and latency per route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
