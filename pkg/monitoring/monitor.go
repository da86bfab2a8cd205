package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 评审流程指标
	ReviewTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_transitions_total",
			Help: "Review workflow operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ReviewScores = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_final_score",
			Help:    "Clamped total of finalized reviews",
			Buckets: []float64{400, 500, 600, 700, 800, 900},
		},
		[]string{"label"},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_notifications_total",
			Help: "Completion notifications by result (sent, duplicate, failed)",
		},
		[]string{"result"},
	)

	// 报告生成指标
	ReportRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_render_duration_seconds",
			Help:    "Duration of report rendering",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"renderer", "status"},
	)

	ReportPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_pages",
			Help:    "Number of pages per composed report",
			Buckets: prometheus.LinearBuckets(4, 8, 8),
		},
	)

	ArtifactCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_artifact_cache_total",
			Help: "Rendered artifact cache lookups by result",
		},
		[]string{"result"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ReviewTransitions,
			ReviewScores,
			NotificationsSent,
			ReportRenderDuration,
			ReportPages,
			ArtifactCache,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
