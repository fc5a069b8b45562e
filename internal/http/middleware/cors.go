// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides CORSHeaders, which stamps a fixed set of cross-origin
// headers on every response, including errors and preflights. Browsers only
// need them on cross-origin requests, but clients of this API also rely on
// them being present unconditionally (no Origin header required).
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSOptions lists the values emitted by CORSHeaders.
type CORSOptions struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

// DefaultCORSOptions allows any origin to GET, POST and DELETE entries with a
// JSON body.
func DefaultCORSOptions() CORSOptions {
	return CORSOptions{
		AllowOrigin:  "*",
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}
}

// CORSHeaders sets Access-Control-Allow-{Origin,Methods,Headers} before the
// handler chain runs so that every outcome carries them.
func CORSHeaders(opt CORSOptions) gin.HandlerFunc {
	methods := strings.Join(opt.AllowMethods, ",")
	headers := strings.Join(opt.AllowHeaders, ",")
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", opt.AllowOrigin)
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		c.Next()
	}
}
