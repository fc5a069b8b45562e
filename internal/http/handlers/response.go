// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by every endpoint. All JSON
// bodies, success or failure, are pretty-printed with two-space indentation
// and sent as application/json; failures use a single-field envelope.
//
// Conventions:
//   - Error responses are ErrorResponse values, written through fail().
//   - `fail()` logs 5xx responses with the request-scoped logger.
//   - `ok()` and `noContent()` write success responses.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "error": "Entry not found."
//	}
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-entries-backend/internal/http/middleware"
)

const (
	contentTypeJSON = "application/json"
	jsonIndent      = "  "
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Human-readable message (safe to show to users)
	Error string `json:"error" example:"Entry not found."`
}

// DeleteResponse acknowledges a successful deletion.
type DeleteResponse struct {
	OK bool  `json:"ok" example:"true"`
	ID int64 `json:"id" example:"42"`
}

// fail aborts the request with an ErrorResponse and the given status.
// Server errors (>=500) are logged using the request-scoped logger.
func fail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		ev := lg.Error().Int("status", status)
		if err := c.Errors.Last(); err != nil {
			ev = ev.Err(err.Err)
		}
		ev.Msg("api error")
	}
	writeJSON(c, status, ErrorResponse{Error: msg})
	c.Abort()
}

// Fail is the exported variant of fail(); it satisfies middleware.ErrorWriter
// so middleware rejections share the handlers' envelope.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	writeJSON(c, status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// writeJSON serializes v with two-space indentation. gin's IndentedJSON uses
// four spaces, so the body is marshalled here and written raw.
func writeJSON(c *gin.Context, status int, v any) {
	b, err := json.MarshalIndent(v, "", jsonIndent)
	if err != nil {
		_ = c.Error(err)
		c.Data(http.StatusInternalServerError, contentTypeJSON,
			[]byte("{\n"+jsonIndent+`"error": "`+MsgInternal+"\"\n}"))
		return
	}
	c.Data(status, contentTypeJSON, b)
}

// PlainText writes a text/plain body; used for the 404 and 405 fallbacks.
func PlainText(c *gin.Context, status int, body string) {
	c.Data(status, "text/plain; charset=utf-8", []byte(body))
}
