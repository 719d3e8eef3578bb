package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"callcenter-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, id auth.Identity, chain ...gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	handlers := []gin.HandlerFunc{func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}}
	handlers = append(handlers, chain...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(200) })
	r.GET("/x", handlers...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	code := serve(t, auth.Identity{UserID: "u", TenantID: "t", Role: RoleSuperAdmin}, RequireTenant(), RequireAnyRole(RoleOwner))
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_ViewerCannotWrite(t *testing.T) {
	code := serve(t, auth.Identity{UserID: "u", TenantID: "t", Role: RoleViewer}, RequireTenant(), RequireAnyRole(Writers...))
	if code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_AgentCanWrite(t *testing.T) {
	code := serve(t, auth.Identity{UserID: "u", TenantID: "t", Role: RoleAgent}, RequireTenant(), RequireAnyRole(Writers...))
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireTenant_Required(t *testing.T) {
	code := serve(t, auth.Identity{UserID: "u", Role: RoleOwner}, RequireTenant(), RequireAnyRole(RoleOwner))
	if code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestIsAssignable(t *testing.T) {
	if IsAssignable(RoleSuperAdmin) || !IsAssignable(RoleViewer) {
		t.Fatalf("unexpected assignability")
	}
}
