package rbac

import (
	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireTenant enforces the multi-tenant invariant: a tenant identity must exist in context.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.TenantID(c.Request.Context()); err != nil {
			abort(c, apperr.Unauthorized("tenant identity required"))
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// super_admin bypasses all checks; tenant isolation still comes from RequireTenant.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil {
			abort(c, apperr.Unauthorized("role required"))
			return
		}
		if IsSuperAdmin(role) {
			c.Next()
			return
		}
		if _, ok := allowedSet[role]; !ok {
			abort(c, apperr.Forbidden("insufficient role"))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.StatusOf(err), apperr.BodyOf(err))
}
