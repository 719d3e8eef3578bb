package httpapi

import (
	"net/http"
	"time"

	"callcenter-platform/internal/accounts"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type meResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	TenantID  string    `json:"tenant_id"`
}

// Register creates a tenant with its owner and returns a token pair.
func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, _, err := h.Accounts.Register(c.Request.Context(), accounts.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.Accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout revokes the refresh token when one is supplied. The body is optional.
func (h Handlers) Logout(c *gin.Context) {
	var req logoutRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if err := h.Accounts.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// RequireActiveUser runs after the token middleware and rejects tokens whose
// user has since been disabled or removed.
func (h Handlers) RequireActiveUser(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	if err := h.Accounts.Active(c.Request.Context(), sc); err != nil {
		writeError(c, err)
		return
	}
	c.Next()
}

func (h Handlers) Me(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	u, err := h.Accounts.Me(c.Request.Context(), sc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		TenantID:  u.TenantID,
	})
}
