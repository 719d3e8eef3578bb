package httpapi

import (
	"net/http"

	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListCalls(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	q, err := parseList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	f := calls.Filter{
		CampaignID: c.Query("campaign_id"),
		LeadID:     c.Query("lead_id"),
		Sort:       q.Sort,
		Desc:       q.Desc,
		Page:       q.Page,
	}
	if raw := c.Query("status"); raw != "" {
		if f.Status, err = calls.ParseStatus(raw); err != nil {
			writeError(c, err)
			return
		}
	}
	if raw := c.Query("outcome"); raw != "" {
		if f.Outcome, err = calls.ParseOutcome(raw); err != nil {
			writeError(c, err)
			return
		}
	}
	res, err := h.Calls.List(c.Request.Context(), sc, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) ActiveCalls(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	p, ok := pageOnly(c)
	if !ok {
		return
	}
	res, err := h.Calls.Active(c.Request.Context(), sc, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) CallQueue(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	p, ok := pageOnly(c)
	if !ok {
		return
	}
	res, err := h.Calls.Queue(c.Request.Context(), sc, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) CallStats(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	st, err := h.Calls.Stats(c.Request.Context(), sc, c.Query("date_range"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h Handlers) GetCall(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	call, err := h.Calls.Get(c.Request.Context(), sc, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h Handlers) CreateCall(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in calls.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	call, err := h.Calls.Create(c.Request.Context(), sc, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h Handlers) SetCallStatus(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in calls.StatusInput
	if !bindJSON(c, &in) {
		return
	}
	call, err := h.Calls.SetStatus(c.Request.Context(), sc, c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h Handlers) UpdateCallMetadata(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in calls.MetadataInput
	if !bindJSON(c, &in) {
		return
	}
	call, err := h.Calls.UpdateMetadata(c.Request.Context(), sc, c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// InitiateCall dials a lead through the AI provider.
func (h Handlers) InitiateCall(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in telephony.InitiateInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.Dialer.Initiate(c.Request.Context(), sc, in)
	h.observeInitiate(err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) observeInitiate(err error) {
	if h.Metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.Metrics.CallsInitiated.WithLabelValues(result).Inc()
}
