package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics records request counts and latencies by route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "draw2real_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "draw2real_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// GinMiddleware records metrics for every handled request.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// GenerationMetrics records generation attempt outcomes.
type GenerationMetrics struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
	credits  *prometheus.CounterVec
}

func NewGenerationMetrics() *GenerationMetrics {
	return &GenerationMetrics{
		attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "draw2real_generation_attempts_total",
			Help: "Generation attempts by terminal state.",
		}, []string{"state"}),
		duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "draw2real_generation_duration_seconds",
			Help:    "End to end generation pipeline duration.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		credits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "draw2real_credit_mutations_total",
			Help: "Credit ledger mutations by kind.",
		}, []string{"kind"}),
	}
}

// RecordAttempt records one finished attempt with its terminal state.
func (m *GenerationMetrics) RecordAttempt(state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(strings.TrimSpace(state)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// RecordCreditMutation records one ledger mutation by transaction kind.
func (m *GenerationMetrics) RecordCreditMutation(kind string) {
	if m == nil {
		return
	}
	m.credits.WithLabelValues(strings.TrimSpace(kind)).Inc()
}
