package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notaria/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
)

// certificate uploads dominate the upper buckets
var requestSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 2000000}

type httpInstruments struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	size     metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	in := telemetry.NewInstruments(meter)
	h := &httpInstruments{
		requests: in.Counter("http_server_request_total", "HTTP requests served", "{request}"),
		latency:  in.Histogram("http_server_request_duration_seconds", "HTTP request latency", "s", telemetry.HTTPDurationBuckets...),
		size:     in.Histogram("http_server_request_size_bytes", "HTTP request body size", "By", requestSizeBuckets...),
		inFlight: in.UpDownCounter("http_server_active_requests", "HTTP requests in flight", "{request}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// HTTPMetrics records request count, latency, body size and in-flight requests
// on mp. Nothing is recorded while mp is nil or disabled.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if !mp.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(mp.Meter("http.server"))
}

func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	h, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		began := time.Now()
		h.inFlight.Add(ctx, 1)
		defer h.inFlight.Add(ctx, -1)

		c.Next()

		// the route template keeps label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := telemetry.AttrHTTPMethod.String(c.Request.Method)
		tmpl := telemetry.AttrHTTPRoute.String(route)

		h.requests.Add(ctx, 1, metric.WithAttributes(method, tmpl, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status())))
		h.latency.Record(ctx, time.Since(began).Seconds(), metric.WithAttributes(method, tmpl))
		if n := c.Request.ContentLength; n > 0 {
			h.size.Record(ctx, float64(n), metric.WithAttributes(method, tmpl))
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}
