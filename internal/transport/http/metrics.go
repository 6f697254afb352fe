package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_http_requests_total",
		Help: "Total number of HTTP requests grouped by route, method and status code.",
	}, []string{"route", "method", "code"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orders_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds grouped by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func init() {
	httpRequestsTotal = registerCounterVec(httpRequestsTotal)
	httpRequestDuration = registerHistogramVec(httpRequestDuration)
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*prometheus.CounterVec); ok2 {
				return existing
			}
		}
	}
	return vec
}

func registerHistogramVec(vec *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*prometheus.HistogramVec); ok2 {
				return existing
			}
		}
	}
	return vec
}

// metricsMiddleware считает запросы и длительности по шаблону маршрута,
// а не по сырому пути: иначе кардинальность растёт с каждым order id.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
