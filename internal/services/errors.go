// Package services defines the business logic for entries and submission rate
// limiting. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrEntryNotFound indicates that no entry exists with the requested id.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidID is returned when an entry id is not a positive integer.
	ErrInvalidID = errors.New("invalid entry id")

	// ErrRateLimited is returned when a client address has used up its
	// submissions for the current window.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrLimiterContention is returned when the limiter kept losing
	// conditional writes for one address and gave up without a decision.
	ErrLimiterContention = errors.New("rate limiter contention")
)
