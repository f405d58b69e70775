package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// statusWriter captures the response status and size. The status defaults to
// 200 when the handler never calls WriteHeader.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routeOf resolves the chi route pattern once routing has happened, falling
// back to the raw path for unmatched requests.
func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// Telemetry is the single instrumentation middleware for the API: it opens a
// span per request and feeds the HTTP collectors. Either half degrades to a
// no-op when unset, so tests can mount handlers bare.
type Telemetry struct {
	Metrics *HTTPMetrics
	Tracer  trace.Tracer
}

// Middleware wraps the handler chain with tracing and request metrics.
func (t Telemetry) Middleware(next http.Handler) http.Handler {
	tracer := t.Tracer
	if tracer == nil {
		tracer = otel.Tracer("pasar.http")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		if t.Metrics != nil {
			t.Metrics.InFlight.Inc()
		}
		start := time.Now()

		next.ServeHTTP(sw, r.WithContext(ctx))

		// The route pattern is only known after chi has matched.
		route := routeOf(r)
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", sw.Status()),
		)
		if sw.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.Status()))
		}
		span.End()

		if t.Metrics != nil {
			t.Metrics.InFlight.Dec()
			t.Metrics.Requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status())).Inc()
			t.Metrics.Latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}
	})
}
