// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements AccessLog. Entries carry names and phone numbers, so
// bodies are never logged, and the query string and header values that are
// logged have emails, phone numbers and UUIDs replaced by placeholders.
// Credential headers, and any header named in RedactOptions, are dropped to
// "[REDACTED]" entirely.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for AccessLog.
type RedactOptions struct {
	// MaskHeaders are extra header names (case-insensitive) whose values
	// are never logged.
	MaskHeaders []string
}

const (
	redactedValue     = "[REDACTED]"
	maxQueryLogLength = 2048
)

// Applied in order: the phone pattern would otherwise eat the digit runs of
// a UUID.
var scrubbers = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

func redact(s string) string {
	for _, sc := range scrubbers {
		if s == "" {
			break
		}
		s = sc.re.ReplaceAllString(s, sc.with)
	}
	return s
}

// truncate cuts s to n bytes plus an ellipsis; n <= 0 disables it.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// headerMask holds lower-cased header names whose values are withheld.
type headerMask map[string]bool

func newHeaderMask(extra []string) headerMask {
	m := headerMask{"authorization": true, "cookie": true, "set-cookie": true}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			m[h] = true
		}
	}
	return m
}

func (m headerMask) scrub(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if m[strings.ToLower(k)] {
			out[k] = redactedValue
			continue
		}
		out[k] = redact(strings.Join(vv, ", "))
	}
	return out
}

// accessEvent picks the level: error for 5xx or recorded gin errors, warn
// for other 4xx, info otherwise.
func accessEvent(l *zerolog.Logger, c *gin.Context) *zerolog.Event {
	status := c.Writer.Status()
	switch {
	case len(c.Errors) > 0:
		return l.Error().Str("errors", c.Errors.String())
	case status >= http.StatusInternalServerError:
		return l.Error()
	case status >= http.StatusBadRequest:
		return l.Warn()
	default:
		return l.Info()
	}
}

// AccessLog logs one "http_request" line per request and stores the
// request-scoped logger that LoggerFrom returns to handlers.
func AccessLog(opts RedactOptions) gin.HandlerFunc {
	mask := newHeaderMask(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client", ClientAddress(c)).
			Logger()
		c.Set(ctxLogger, &l)

		query := redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := mask.scrub(c.Request.Header)

		c.Next()

		accessEvent(&l, c).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
