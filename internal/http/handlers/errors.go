// Package handlers – client-facing error messages.
//
// Messages are part of the public contract: clients match on them, so they
// are fixed strings rather than wrapped error text. Validation messages come
// from the domain package and are passed through unchanged.
package handlers

const (
	MsgInvalidJSON   = "Request body must be valid JSON."
	MsgInvalidID     = "Invalid entry id."
	MsgEntryNotFound = "Entry not found."
	MsgInternal      = "Internal server error."

	MsgNotFound         = "Not Found"
	MsgMethodNotAllowed = "Method Not Allowed"
)
