package api

import (
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewear_http_requests_total",
			Help: "Total HTTP requests served, by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rewear_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// metricsHandler serves the Prometheus scrape endpoint
var metricsHandler fasthttp.RequestHandler = fasthttpadaptor.NewFastHTTPHandler(
	promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
)

// metricsPath prefers the matched route template, so item and swap IDs
// do not fan out into unbounded label values
func metricsPath(ctx *fasthttp.RequestCtx) string {
	if matched, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && matched != "" {
		return matched
	}
	return string(ctx.Path())
}

// metricsMiddleware records request counts and latency
func (s *Server) metricsMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		next(ctx)

		method := string(ctx.Method())
		path := metricsPath(ctx)
		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(ctx.Response.StatusCode())).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
