// Package services – RateLimiter
//
// This file implements a fixed-window submission limiter whose state lives in
// the rate_limits table, one row per client address. Nothing is cached in
// process memory, so any number of service instances sharing the database
// enforce the same limit.
//
// Each attempt is one read followed by at most one write. The write is
// conditional on the row state that was read; if another request changed the
// row in between, the guard misses and the decision is re-evaluated against
// the fresh row. This keeps the counter exact under concurrent submissions
// from the same address.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-entries-backend/internal/repo"
)

// Defaults for the submission window.
const (
	DefaultRateLimit  = 5
	DefaultRateWindow = 60 * time.Second
)

// Decision describes the outcome of a RateLimiter.Allow call.
type Decision struct {
	// Allowed reports whether the submission may proceed.
	Allowed bool
	// Remaining is the number of submissions left in the current window.
	Remaining int
	// RetryAfter is the time until the current window ends (set on rejection).
	RetryAfter time.Duration
}

// RateLimiter enforces Limit submissions per Window for each client address.
type RateLimiter struct {
	DB     *gorm.DB
	Limit  int
	Window time.Duration
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
	// MaxAttempts bounds re-evaluation after lost write races; <= 0 means
	// Limit+2, enough for every slot of a window plus one reset to be taken
	// by concurrent writers.
	MaxAttempts int
}

// NewRateLimiter constructs a RateLimiter; non-positive limit or window fall
// back to 5 submissions per 60 seconds.
func NewRateLimiter(db *gorm.DB, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window < time.Second {
		window = DefaultRateWindow
	}
	return &RateLimiter{DB: db, Limit: limit, Window: window, MaxAttempts: limit + 2}
}

func (l *RateLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records a submission attempt for ip and decides whether it may
// proceed. A rejected attempt returns ErrRateLimited and leaves the counter
// unchanged. Storage failures are returned as-is, and ErrLimiterContention
// is returned when every attempt lost its write race.
func (l *RateLimiter) Allow(ctx context.Context, ip string) (Decision, error) {
	tr := otel.Tracer("services/RateLimiter")
	ctx, span := tr.Start(ctx, "Allow")
	defer span.End()

	window := int64(l.Window / time.Second)
	attempts := l.MaxAttempts
	if attempts <= 0 {
		attempts = l.Limit + 2
	}

	for i := 0; i < attempts; i++ {
		now := l.now().Unix()

		cur, err := repo.GetRateLimit(ctx, l.DB, ip)
		if errors.Is(err, repo.ErrNotFound) {
			inserted, err := repo.InsertRateLimit(ctx, l.DB, ip, now)
			if err != nil {
				return Decision{}, err
			}
			if inserted {
				return l.allowed(span, 1), nil
			}
			continue
		}
		if err != nil {
			return Decision{}, err
		}

		var applied bool
		var count int
		elapsed := now - cur.WindowStart
		switch {
		case elapsed < window && cur.Count >= l.Limit:
			d := Decision{RetryAfter: time.Duration(window-elapsed) * time.Second}
			span.SetAttributes(attribute.Bool("ratelimit.allowed", false))
			return d, ErrRateLimited
		case elapsed < window:
			applied, err = repo.IncrementRateLimit(ctx, l.DB, *cur)
			count = cur.Count + 1
		default:
			applied, err = repo.ResetRateLimit(ctx, l.DB, *cur, now)
			count = 1
		}
		if err != nil {
			return Decision{}, err
		}
		if applied {
			return l.allowed(span, count), nil
		}
	}

	span.SetAttributes(attribute.Bool("ratelimit.contended", true))
	return Decision{}, ErrLimiterContention
}

func (l *RateLimiter) allowed(span trace.Span, count int) Decision {
	span.SetAttributes(
		attribute.Bool("ratelimit.allowed", true),
		attribute.Int("ratelimit.count", count),
	)
	remaining := l.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}
}

