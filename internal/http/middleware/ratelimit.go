// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file wires the storage-backed submission limiter into Gin. The limiter
// itself (services.RateLimiter) keeps its counters in the database; this
// middleware only derives the client address, asks for a decision, and turns
// a rejection into a 429.
//
// The limiter is attached per route (POST /entries only) and must run before
// the request body is read, so rejected submissions cost no parsing work and
// produce no writes.
package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-entries-backend/internal/services"
	"github.com/tbourn/go-entries-backend/internal/sysutil"
)

// Headers consulted, in order, to derive the client address.
const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderConnectingIP = "CF-Connecting-IP"

	// UnknownClient is the rate-limit key used when no address header is present.
	UnknownClient = "unknown"

	// RateLimitedMessage is the fixed 429 error message.
	RateLimitedMessage = "Rate limit exceeded. Try again in a minute."
)

// SubmissionLimiter decides whether a client address may submit right now.
// *services.RateLimiter satisfies it.
type SubmissionLimiter interface {
	Allow(ctx context.Context, ip string) (services.Decision, error)
}

// ErrorWriter renders an error response; handlers.Fail satisfies it.
type ErrorWriter func(c *gin.Context, status int, msg string)

var rateLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "entries_submissions_rate_limited_total",
		Help: "Submissions rejected by the per-address rate limiter.",
	},
)

func init() {
	prometheus.MustRegister(rateLimitedTotal)
}

// ClientAddress derives the best-effort originating address of the request.
// X-Forwarded-For is used whenever it is sent, even if blank, else
// CF-Connecting-IP. The first comma-separated value is trimmed; requests with
// neither header, or with an empty first value, share UnknownClient.
func ClientAddress(c *gin.Context) string {
	raw := sysutil.FirstPresent(
		c.GetHeader(HeaderForwardedFor),
		c.GetHeader(HeaderConnectingIP),
	)
	first, _, _ := strings.Cut(raw, ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return UnknownClient
}

// SubmissionLimit returns a Gin middleware that consults lim for the client
// address of every request it wraps.
//
// Behavior:
//   - Allowed: the request proceeds.
//   - services.ErrRateLimited: 429 with RateLimitedMessage and a Retry-After
//     header (whole seconds until the window ends).
//   - Any other error, services.ErrLimiterContention included: 500 via fail;
//     storage failures are not retried.
func SubmissionLimit(lim SubmissionLimiter, fail ErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := lim.Allow(c.Request.Context(), ClientAddress(c))
		switch {
		case err == nil && d.Allowed:
			c.Next()
		case errors.Is(err, services.ErrRateLimited) || (err == nil && !d.Allowed):
			rateLimitedTotal.Inc()
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			fail(c, http.StatusTooManyRequests, RateLimitedMessage)
		default:
			_ = c.Error(err)
			fail(c, http.StatusInternalServerError, internalErrorMessage)
		}
	}
}
