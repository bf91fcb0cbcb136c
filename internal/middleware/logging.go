package middleware

import (
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"image-viewer/internal/logging"
)

// LoggingConfig selects which requests Logger writes.
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged.
	SkipPaths []string
	// LogHealthChecks logs /healthz probes too.
	LogHealthChecks bool
}

// DefaultLoggingConfig leaves out Prometheus scrapes and health probes.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{SkipPaths: []string{"/metrics"}}
}

// Logger logs one W3C extended format line per request at info level under
// the "http" component.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	log := logging.For("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			log.Info("%s", formatW3C(time.Now().UTC(), r, rec, time.Since(start)))
		})
	}
}

func shouldSkip(path string, config LoggingConfig) bool {
	if path == "/healthz" && !config.LogHealthChecks {
		return true
	}
	return slices.ContainsFunc(config.SkipPaths, func(p string) bool {
		return strings.HasPrefix(path, p)
	})
}

// formatW3C renders the fields
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(User-Agent)
//
// with "-" for empty values.
func formatW3C(now time.Time, r *http.Request, rec *statusRecorder, took time.Duration) string {
	fields := []string{
		now.Format(time.DateOnly),
		now.Format(time.TimeOnly),
		orDash(clientIP(r)),
		orDash(r.Method),
		orDash(r.URL.Path),
		orDash(r.URL.RawQuery),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.size, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		escapeW3CField(orDash(r.UserAgent())),
	}
	return strings.Join(fields, " ")
}

func orDash(s string) string {
	if s = sanitizeLogField(s); s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField drops control characters so a request cannot forge log
// lines. Line breaks become spaces; tabs survive.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// escapeW3CField quotes s when it contains blanks or quotes, doubling
// embedded quotes.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// clientIP is the peer address without its port. Forwarding headers are not
// trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
