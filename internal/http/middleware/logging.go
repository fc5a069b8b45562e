// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file covers request correlation and panic handling:
//
//   - RequestID tags every request and response with X-Request-ID.
//   - Recovery turns a panic into the API's usual {"error": "..."} 500.
//   - LoggerFrom hands handlers the request-scoped logger set by AccessLog.
//
// Register RequestID, then AccessLog, then Recovery so a recovered panic is
// logged with its request id.
package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// HeaderRequestID carries the correlation id in both directions.
	HeaderRequestID = "X-Request-ID"

	ctxRequestID = "entries.request_id"
	ctxLogger    = "entries.logger"

	maxRequestIDLength = 128

	internalErrorMessage = "Internal server error."
)

// RequestID reuses a client-supplied X-Request-ID when it is a short,
// printable token and otherwise mints a UUIDv4. The id is echoed on the
// response before any handler runs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if !acceptableRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

// acceptableRequestID rejects empty, oversized and non-printable ids so a
// client cannot smuggle control characters into our logs.
func acceptableRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(rid); i++ {
		if rid[i] < 0x21 || rid[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the id stored by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// Recovery logs a panic with its stack and answers 500. When the handler had
// already started writing, only the status is forced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			abortWithError(c, http.StatusInternalServerError, internalErrorMessage)
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger tagged
// with the request id when AccessLog is not in the chain.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(ctxLogger).(*zerolog.Logger); ok {
		return lg
	}
	l := log.Logger
	if rid := GetRequestID(c); rid != "" {
		l = l.With().Str("request_id", rid).Logger()
	}
	return &l
}

// abortWithError writes {"error": msg} indented like handler responses and
// stops the chain.
func abortWithError(c *gin.Context, status int, msg string) {
	b, _ := json.MarshalIndent(gin.H{"error": msg}, "", "  ")
	c.Data(status, "application/json", b)
	c.Abort()
}
