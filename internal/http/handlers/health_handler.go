package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HealthResponse is the body of a successful health check.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Health godoc
// @ID          health
// @Summary     Health check
// @Description Reports whether the service can reach its database.
// @Tags        Ops
// @Produce     json
// @Success     200  {object} handlers.HealthResponse
// @Failure     503  {object} handlers.ErrorResponse "Database unreachable"
// @Router      /health [get]
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = c.Error(err)
			fail(c, http.StatusServiceUnavailable, "Database unavailable.")
			return
		}
		ok(c, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
