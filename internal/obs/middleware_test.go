package obs

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestStatusWriterDefaultsToOK(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	if _, err := sw.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if sw.Status() != http.StatusOK {
		t.Fatalf("status = %d, want 200", sw.Status())
	}
	if sw.bytes != 5 {
		t.Fatalf("bytes = %d, want 5", sw.bytes)
	}
}

func TestTelemetryRecordsRouteAndStatus(t *testing.T) {
	m := newHTTPMetrics("test")
	r := chi.NewRouter()
	r.Use(Telemetry{Metrics: m}.Middleware)
	r.Get("/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	got := testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/things/{id}", "404"))
	if got != 1 {
		t.Fatalf("request counter = %v, want 1 under the matched route pattern", got)
	}
	if testutil.ToFloat64(m.InFlight) != 0 {
		t.Fatal("in-flight gauge must return to zero")
	}
}

func TestTelemetryWithoutMetricsPassesThrough(t *testing.T) {
	h := Telemetry{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestRequestLoggerSeverityFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	h := RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/carts", nil))

	line := buf.String()
	if !strings.Contains(line, `"level":"error"`) {
		t.Fatalf("5xx must log at error level, got %s", line)
	}
	if !strings.Contains(line, `"status":500`) || !strings.Contains(line, `"path":"/carts"`) {
		t.Fatalf("log line missing request fields: %s", line)
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger := NewLogger("json", "nonsense")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %s, want info", logger.GetLevel())
	}
}
