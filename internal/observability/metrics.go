package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency in a Prometheus registry.
type Metrics struct {
	registry *prom.Registry
	requests *prom.CounterVec
	latency  *prom.HistogramVec
	path     string
}

// NewMetrics registers the request metrics. Requests to metricsPath are not
// measured. A nil registry gets a fresh one.
func NewMetrics(reg *prom.Registry, metricsPath string) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		path:     metricsPath,
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "clusterwiki",
			Name:      "http_requests_total",
			Help:      "Completed HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		latency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "clusterwiki",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

// Middleware measures every request except the scrape endpoint.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == m.path {
			c.Next()
			return
		}

		start := time.Now()
		defer func() {
			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			method := c.Request.Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
			m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		}()

		c.Next()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prom.Registry {
	return m.registry
}
