// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file instruments HTTP traffic with Prometheus under the
// "entries_http" prefix. Labels are bounded: the route template
// (e.g. /entries/:id, never the raw id) and "unmatched" for anything that hit
// the 404/405 fallbacks, so scanners cannot inflate cardinality.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedRoute labels requests that matched no registered route.
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requests *prometheus.CounterVec   // method, route, code
	latency  *prometheus.HistogramVec // method, route
	inFlight prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	f := promauto.With(reg)
	return &httpMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entries",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "entries",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			// 1ms .. ~3.8s: single-row SQL work up to a slow disk.
			Buckets: prometheus.ExponentialBuckets(0.001, 2.5, 10),
		}, []string{"method", "route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "entries",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
}

var defaultHTTPMetrics = newHTTPMetrics(prometheus.DefaultRegisterer)

// Metrics records every request in the default Prometheus registry, which
// the router exposes on /metrics.
func Metrics() gin.HandlerFunc {
	return defaultHTTPMetrics.handler()
}

func (m *httpMetrics) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
