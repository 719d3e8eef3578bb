package main

import (
	"log/slog"

	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/ratelimit"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/internal/telephony"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	Log            *slog.Logger
	Tokens         *auth.Manager
	Handlers       httpapi.Handlers
	Platform       httpapi.Platform
	Webhook        telephony.WebhookHandler
	Metrics        *metrics.Metrics
	Limiter        *ratelimit.PerIP
	AllowedOrigins []string
}

// newRouter is the routing table. Keep it free of business logic: every
// route names its auth and role requirements and delegates to a handler.
func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(httpapi.CORS(d.AllowedOrigins))

	// public
	r.GET("/", d.Platform.Root)
	r.GET("/health", d.Platform.Health)
	r.GET("/health/ready", d.Platform.Ready)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	h := d.Handlers
	api := r.Group("/api")
	api.Use(ratelimit.Middleware(d.Limiter))

	// Provider webhook (public). Tenant comes from the call metadata;
	// BLAND_WEBHOOK_SECRET guards it when set.
	api.POST("/calls/webhook/bland", d.Webhook.Handle)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	// protected API group
	p := api.Group("")
	p.Use(auth.RequireAccessToken(d.Tokens), rbac.RequireTenant(), h.RequireActiveUser)

	write := rbac.RequireAnyRole(rbac.Writers...)
	manage := rbac.RequireAnyRole(rbac.Managers...)

	p.GET("/auth/me", h.Me)
	p.POST("/auth/logout", h.Logout)

	// LEADS routes
	leadsGroup := p.Group("/leads")
	{
		leadsGroup.GET("", h.ListLeads)
		leadsGroup.POST("", write, h.CreateLead)
		leadsGroup.POST("/import/csv", write, h.ImportLeads)
		leadsGroup.GET("/export/csv", h.ExportLeads)
		leadsGroup.GET("/:id", h.GetLead)
		leadsGroup.PUT("/:id", write, h.UpdateLead)
		leadsGroup.PATCH("/:id/status", write, h.SetLeadStatus)
		leadsGroup.DELETE("/:id", write, h.DeleteLead)
		leadsGroup.GET("/:id/calls", h.LeadCalls)
	}

	// CAMPAIGNS routes
	campaignsGroup := p.Group("/campaigns")
	{
		campaignsGroup.GET("", h.ListCampaigns)
		campaignsGroup.POST("", write, h.CreateCampaign)
		campaignsGroup.GET("/:id", h.GetCampaign)
		campaignsGroup.PUT("/:id", write, h.UpdateCampaign)
		campaignsGroup.PATCH("/:id/status", write, h.SetCampaignStatus)
		campaignsGroup.DELETE("/:id", manage, h.DeleteCampaign)
		campaignsGroup.GET("/:id/stats", h.CampaignStats)
		campaignsGroup.POST("/:id/leads", write, h.AddCampaignLeads)
		campaignsGroup.DELETE("/:id/leads/:lead_id", write, h.RemoveCampaignLead)
	}

	// CALLS routes
	callsGroup := p.Group("/calls")
	{
		callsGroup.GET("", h.ListCalls)
		callsGroup.POST("", write, h.CreateCall)
		callsGroup.GET("/active", h.ActiveCalls)
		callsGroup.GET("/queue", h.CallQueue)
		callsGroup.GET("/stats", h.CallStats)
		callsGroup.POST("/initiate", write, h.InitiateCall)
		callsGroup.GET("/:id", h.GetCall)
		callsGroup.PATCH("/:id/status", write, h.SetCallStatus)
		callsGroup.PATCH("/:id/metadata", write, h.UpdateCallMetadata)
	}

	// AI CONFIG routes
	// Only owner/admin (and super_admin) can change agent behaviour.
	aiGroup := p.Group("/ai-config")
	{
		aiGroup.GET("", h.GetAIConfig)
		aiGroup.POST("", manage, h.CreateAIConfig)
		aiGroup.PATCH("", manage, h.PatchAIConfig)
		aiGroup.PUT("", manage, h.ReplaceAIConfig)
		aiGroup.DELETE("", manage, h.ResetAIConfig)
	}

	// ANALYTICS routes
	analyticsGroup := p.Group("/analytics")
	{
		analyticsGroup.GET("/dashboard", h.Dashboard)
		analyticsGroup.GET("/calls-overtime", h.CallsOverTime)
		analyticsGroup.GET("/outcomes", h.Outcomes)
		analyticsGroup.GET("/campaigns-performance", h.CampaignsPerformance)
	}

	return r
}
