package httpapi

import (
	"net/http"

	"callcenter-platform/internal/campaigns"

	"github.com/gin-gonic/gin"
)

type leadIDsRequest struct {
	LeadIDs []string `json:"lead_ids" binding:"required"`
}

func (h Handlers) ListCampaigns(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	q, err := parseList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	f := campaigns.Filter{Search: c.Query("search"), Sort: q.Sort, Desc: q.Desc, Page: q.Page}
	if raw := c.Query("status"); raw != "" {
		if f.Status, err = campaigns.ParseStatus(raw); err != nil {
			writeError(c, err)
			return
		}
	}
	res, err := h.Campaigns.List(c.Request.Context(), sc, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) GetCampaign(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	cp, err := h.Campaigns.Get(c.Request.Context(), sc, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in campaigns.Input
	if !bindJSON(c, &in) {
		return
	}
	cp, err := h.Campaigns.Create(c.Request.Context(), sc, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

func (h Handlers) UpdateCampaign(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in campaigns.Input
	if !bindJSON(c, &in) {
		return
	}
	cp, err := h.Campaigns.Update(c.Request.Context(), sc, c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (h Handlers) SetCampaignStatus(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	cp, err := h.Campaigns.SetStatus(c.Request.Context(), sc, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (h Handlers) DeleteCampaign(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	if err := h.Campaigns.Delete(c.Request.Context(), sc, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) CampaignStats(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	st, err := h.Campaigns.Stats(c.Request.Context(), sc, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h Handlers) AddCampaignLeads(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var req leadIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	added, err := h.Campaigns.AddLeads(c.Request.Context(), sc, c.Param("id"), req.LeadIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (h Handlers) RemoveCampaignLead(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	if err := h.Campaigns.RemoveLead(c.Request.Context(), sc, c.Param("id"), c.Param("lead_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
