// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, which stamps a fixed hardening set on
// every response of the entries API, errors and fallbacks included.
//
// Responses are not marked no-store: GET /entries is revalidated through
// Cache-Control: no-cache and a weak ETag set by the list handler, and the
// other JSON responses are never cacheable to begin with. HSTS is opt-in and
// only sent when the request itself arrived over HTTPS.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultHSTSMaxAge is used when HSTS is enabled without a positive max age.
const DefaultHSTSMaxAge = 180 * 24 * time.Hour

// ExposedHeaders are the response headers browser clients may read:
// the correlation id, the list validator and the 429 back-off hint.
const ExposedHeaders = "X-Request-ID, ETag, Retry-After"

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge time.Duration // <= 0 means DefaultHSTSMaxAge
}

type headerPair struct{ name, value string }

var hardeningHeaders = []headerPair{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
}

// SecurityHeaders sets the hardening headers and Access-Control-Expose-Headers
// before the chain runs. gin-contrib/cors may later replace the expose list
// for Origin-bearing requests with the same values.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	hsts := hstsValue(opt.HSTSMaxAge)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range hardeningHeaders {
			h.Set(p.name, p.value)
		}
		h.Set("Access-Control-Expose-Headers", ExposedHeaders)
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

func hstsValue(maxAge time.Duration) string {
	if maxAge <= 0 {
		maxAge = DefaultHSTSMaxAge
	}
	return "max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10) + "; includeSubDomains"
}

// isHTTPS reports whether the request reached us over TLS, directly or via a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
