package httpapi

import (
	"context"
	"net/http"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/pkg/logger"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Platform serves the unauthenticated service endpoints.
type Platform struct {
	Version string
	// DB is nil in tests; readiness then reports ok.
	DB utils.Pinger
}

func (p Platform) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Call Center API",
		"version": p.Version,
		"docs":    "/health",
	})
}

func (p Platform) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready checks the database with a short deadline.
func (p Platform) Ready(c *gin.Context) {
	if p.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), p.DB, 2*time.Second); err != nil {
			logger.FromGin(c).Warn("readiness check failed", "err", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apperr.BodyOf(apperr.Unavailable("database unavailable", err)))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

// PingFunc adapts a function to utils.Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
