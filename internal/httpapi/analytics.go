package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h Handlers) Dashboard(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	d, err := h.Analytics.Dashboard(c.Request.Context(), sc, c.Query("date_range"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Handlers) CallsOverTime(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	buckets, err := h.Analytics.CallsOverTime(c.Request.Context(), sc, c.Query("date_range"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (h Handlers) Outcomes(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	shares, err := h.Analytics.Outcomes(c.Request.Context(), sc, c.Query("date_range"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shares)
}

func (h Handlers) CampaignsPerformance(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	rows, err := h.Analytics.CampaignsPerformance(c.Request.Context(), sc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
