// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and submission rate limiting.
//
// Routes:
//
//	GET     /entries        list entries
//	POST    /entries        submit an entry (rate limited per client address)
//	DELETE  /entries/:id    delete an entry
//	OPTIONS /entries[/:id]  preflight
//	GET     /health         database ping
//	GET     /metrics        Prometheus exposition
//	GET     /swagger/*any   API docs (when enabled)
//
// Unmatched paths answer 404 "Not Found" and known paths with the wrong
// method answer 405 "Method Not Allowed", both as plain text.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-entries-backend/internal/config"
	"github.com/tbourn/go-entries-backend/internal/http/handlers"
	"github.com/tbourn/go-entries-backend/internal/http/middleware"
	"github.com/tbourn/go-entries-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and builds the entry service and submission limiter on top of db.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Fixed CORS headers (present on every response, errors included)
//  8. Security headers
//
// Gzip is attached to GET /entries only; every other response is small or
// bodiless.
//
// The submission limiter is attached to POST /entries only, ahead of the
// handler, so rejected requests never have their body parsed.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) error {
	r.HandleMethodNotAllowed = true
	r.RedirectTrailingSlash = false

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction; raw address chains stay out of
	// the log, the derived client address is logged on its own.
	r.Use(middleware.AccessLog(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderForwardedFor, middleware.HeaderConnectingIP},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS headers on every outcome, 404/405 fallbacks included
	corsOpt := middleware.DefaultCORSOptions()
	r.Use(middleware.CORSHeaders(corsOpt))

	// 8) Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.PlainText(c, http.StatusNotFound, handlers.MsgNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.PlainText(c, http.StatusMethodNotAllowed, handlers.MsgMethodNotAllowed)
	})

	// Liveness/health
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	r.GET("/health", handlers.Health(sqlDB))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db
	entrySvc := &services.EntryService{DB: db, ListLimit: cfg.ListLimit}
	limiter := services.NewRateLimiter(db, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	h := handlers.New(entrySvc)

	// Origin-bearing preflights are answered by gin-contrib/cors with the
	// same fixed policy; plain OPTIONS requests reach h.Preflight.
	entries := r.Group("/entries", cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     corsOpt.AllowMethods,
		AllowHeaders:     corsOpt.AllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Retry-After"},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}))
	{
		entries.OPTIONS("", h.Preflight)
		entries.GET("", gzip.Gzip(gzip.DefaultCompression), h.ListEntries)
		entries.POST("", middleware.SubmissionLimit(limiter, handlers.Fail), h.CreateEntry)

		entries.OPTIONS("/:id", h.Preflight)
		entries.DELETE("/:id", h.DeleteEntry)
	}
	return nil
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error. A non-positive cap disables it.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
