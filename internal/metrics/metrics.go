package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_rate_limit_rejections_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
		[]string{"route"},
	)

	EnrollmentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_enrollments_created_total",
			Help: "Total number of course enrollments",
		},
	)

	LessonsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_lessons_completed_total",
			Help: "Total number of lessons marked complete",
		},
	)

	CoursesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_courses_completed_total",
			Help: "Total number of enrollments that reached 100% progress",
		},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_event_publish_failures_total",
			Help: "Domain events that could not be published",
		},
		[]string{"type"},
	)
)

// Middleware records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
