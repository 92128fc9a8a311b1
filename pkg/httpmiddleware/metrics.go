package httpmiddleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics returns a middleware that records a request counter and a duration
// histogram on the given meter provider.
func Metrics(mp metric.MeterProvider) Middleware {
	meter := mp.Meter("github.com/xenking/parfum-storefront/pkg/httpmiddleware")

	requests, err := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of handled HTTP requests."),
	)
	if err != nil {
		requests = noop.Int64Counter{}
	}
	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request handling time."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		duration = noop.Float64Histogram{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.Int("http.response.status_code", rec.status),
			)
			requests.Add(r.Context(), 1, attrs)
			duration.Record(r.Context(), float64(time.Since(start))/float64(time.Millisecond), attrs)
		})
	}
}
