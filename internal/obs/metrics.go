package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups the request-level collectors for the API surface.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

var (
	registerOnce sync.Once
	httpMetrics  *HTTPMetrics

	// CartMutationTotal counts cart mutation outcomes by operation.
	CartMutationTotal *prometheus.CounterVec
	// CartAutoHealTotal counts lines removed or clamped during self-healing.
	CartAutoHealTotal *prometheus.CounterVec
	// PromoApplyTotal counts promo code application outcomes.
	PromoApplyTotal *prometheus.CounterVec
	// ReportQueryTotal counts report page queries by domain.
	ReportQueryTotal *prometheus.CounterVec
	// ReportExportRows records rows emitted per export.
	ReportExportRows *prometheus.HistogramVec
	// ReportExportTruncated counts exports that hit the row cap.
	ReportExportTruncated *prometheus.CounterVec
)

// latencyBuckets covers the spread this service actually serves: cached
// catalog pages land under 50ms, uncached report pages take up to a few
// seconds, synchronous CSV exports can run close to ten.
var latencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// MustRegisterMetrics registers every collector this service emits, HTTP and
// domain alike, and returns the HTTP set for the telemetry middleware.
// Repeated calls return the collectors from the first registration.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) *HTTPMetrics {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		httpMetrics = newHTTPMetrics(namespace)
		CartMutationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutation_total",
			Help:      "Count of cart mutations by operation and result.",
		}, []string{"op", "result"})
		CartAutoHealTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_autoheal_total",
			Help:      "Count of cart lines auto-removed or clamped against live stock.",
		}, []string{"reason"})
		PromoApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_apply_total",
			Help:      "Count of promo code applications by result.",
		}, []string{"result"})
		ReportQueryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_query_total",
			Help:      "Count of report page queries by report domain.",
		}, []string{"report"})
		ReportExportRows = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_export_rows",
			Help:      "Distribution of rows emitted per report export.",
			Buckets:   []float64{100, 1000, 5000, 10000, 25000, 50000},
		}, []string{"report"})
		ReportExportTruncated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_export_truncated_total",
			Help:      "Count of report exports truncated at the row cap.",
		}, []string{"report"})
		reg.MustRegister(
			httpMetrics.Requests,
			httpMetrics.Latency,
			httpMetrics.InFlight,
			CartMutationTotal,
			CartAutoHealTotal,
			PromoApplyTotal,
			ReportQueryTotal,
			ReportExportRows,
			ReportExportTruncated,
		)
	})
	return httpMetrics
}

func newHTTPMetrics(namespace string) *HTTPMetrics {
	return &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by method, route, and status.",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Requests currently being served.",
		}),
	}
}

// Count increments a counter vector if it has been registered. Handlers stay
// usable in tests that never call MustRegisterMetrics.
func Count(vec *prometheus.CounterVec, labels ...string) {
	if vec != nil {
		vec.WithLabelValues(labels...).Inc()
	}
}

// Observe records a histogram sample if the vector has been registered.
func Observe(vec *prometheus.HistogramVec, value float64, labels ...string) {
	if vec != nil {
		vec.WithLabelValues(labels...).Observe(value)
	}
}
