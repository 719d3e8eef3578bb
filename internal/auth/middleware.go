package auth

import (
	"strings"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireAccessToken verifies an access token and injects identity into request context.
// It does not perform RBAC checks; those belong to internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			abort(c, apperr.Unauthorized("missing bearer token"))
			return
		}
		tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))

		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			logger.FromGin(c).Debug("access token rejected", "err", err)
			abort(c, ErrInvalidToken)
			return
		}

		id := claims.Identity()
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))

		// Also store on gin context for handler convenience.
		c.Set("user_id", id.UserID)
		c.Set("tenant_id", id.TenantID)
		c.Set("role", id.Role)
		logger.SetGin(c, logger.FromGin(c).With("tenant_id", id.TenantID, "user_id", id.UserID))

		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.StatusOf(err), apperr.BodyOf(err))
}
