package httpapi

import (
	"context"
	"net/http"

	"callcenter-platform/internal/aiconfig"
	"callcenter-platform/internal/store"

	"github.com/gin-gonic/gin"
)

func (h Handlers) GetAIConfig(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	cfg, err := h.AIConfig.Get(c.Request.Context(), sc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h Handlers) CreateAIConfig(c *gin.Context) {
	h.writeAIConfig(c, http.StatusCreated, h.AIConfig.Create)
}

func (h Handlers) PatchAIConfig(c *gin.Context) {
	h.writeAIConfig(c, http.StatusOK, h.AIConfig.Patch)
}

func (h Handlers) ReplaceAIConfig(c *gin.Context) {
	h.writeAIConfig(c, http.StatusOK, h.AIConfig.Replace)
}

// ResetAIConfig restores the defaults.
func (h Handlers) ResetAIConfig(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	cfg, err := h.AIConfig.Reset(c.Request.Context(), sc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h Handlers) writeAIConfig(c *gin.Context, status int, op func(context.Context, store.Scope, aiconfig.Input) (aiconfig.Config, error)) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in aiconfig.Input
	if !bindJSON(c, &in) {
		return
	}
	cfg, err := op(c.Request.Context(), sc, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, cfg)
}
