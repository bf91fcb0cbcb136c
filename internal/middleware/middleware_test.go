package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"image-viewer/internal/logging"
	"image-viewer/internal/metrics"

	"github.com/gorilla/mux"
	dto "github.com/prometheus/client_model/go"
)

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newStatusRecorder(rec)

	if rw.status != http.StatusOK || rw.wrote {
		t.Fatalf("new recorder = %d, %v", rw.status, rw.wrote)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.status != http.StatusNotFound || rec.Code != http.StatusNotFound {
		t.Errorf("status = %d (sent %d), want the first WriteHeader", rw.status, rec.Code)
	}

	n, err := rw.Write([]byte("test data"))
	if err != nil || n != 9 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if rw.size != 9 {
		t.Errorf("size = %d, want 9", rw.size)
	}

	if err := http.NewResponseController(rw).Flush(); err != nil || !rec.Flushed {
		t.Errorf("Flush() not passed through: %v", err)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a\nb\rc", "a b c"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\there", "tab\there"},
		{"del\x7f", "del"},
	}

	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeW3CField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"curl/8.0", "curl/8.0"},
		{"Mozilla/5.0 (X11)", `"Mozilla/5.0 (X11)"`},
		{`say "hi"`, `"say ""hi"""`},
	}

	for _, tt := range tests {
		if got := escapeW3CField(tt.in); got != tt.want {
			t.Errorf("escapeW3CField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShouldSkip(t *testing.T) {
	config := DefaultLoggingConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"/metrics", true},
		{"/healthz", true},
		{"/status", false},
		{"/metrics/extra", true},
	}
	for _, tt := range tests {
		if got := shouldSkip(tt.path, config); got != tt.want {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	config.LogHealthChecks = true
	if shouldSkip("/healthz", config) {
		t.Error("health checks should be logged when enabled")
	}
}

func TestFormatW3C(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status?verbose=1", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	req.Header.Set("User-Agent", "probe agent")

	rw := newStatusRecorder(httptest.NewRecorder())
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("12345"))

	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	got := formatW3C(now, req, rw, 42*time.Millisecond)
	want := `2026-10-16 09:30:00 192.0.2.7 GET /status verbose=1 200 5 42 "probe agent"`
	if got != want {
		t.Errorf("formatW3C() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatW3CEmptyFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "pipe"
	req.Header.Del("User-Agent")

	rw := newStatusRecorder(httptest.NewRecorder())
	got := formatW3C(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), req, rw, 0)
	want := "2026-01-02 03:04:05 pipe GET /healthz - 200 0 0 -"
	if got != want {
		t.Errorf("formatW3C() = %q, want %q", got, want)
	}
}

func TestLoggerWritesRequests(t *testing.T) {
	var buf bytes.Buffer
	level := logging.GetLevel()
	logging.SetLevel(logging.LevelInfo)
	logging.SetOutput(&buf)
	t.Cleanup(func() {
		logging.SetOutput(os.Stderr)
		logging.SetLevel(level)
	})

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for _, path := range []string{"/status", "/healthz", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := buf.String()
	if !strings.Contains(out, "GET /status - 418") {
		t.Errorf("log output missing /status request: %q", out)
	}
	if strings.Contains(out, "/healthz") || strings.Contains(out, "/metrics") {
		t.Errorf("skipped paths were logged: %q", out)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics())
	r.HandleFunc("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "202")
	before := counterValue(t, counter)

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	if got := counterValue(t, counter) - before; got != 3 {
		t.Errorf("requests counted = %v, want 3 under one route label", got)
	}
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
