package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/leads"

	"github.com/gin-gonic/gin"
)

const HeaderArchiveURL = "X-Archive-URL"

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h Handlers) ListLeads(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	q, err := parseList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	f := leads.Filter{Search: c.Query("search"), Sort: q.Sort, Desc: q.Desc, Page: q.Page}
	if raw := c.Query("status"); raw != "" {
		if f.Status, err = leads.ParseStatus(raw); err != nil {
			writeError(c, err)
			return
		}
	}
	res, err := h.Leads.List(c.Request.Context(), sc, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) GetLead(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	l, err := h.Leads.Get(c.Request.Context(), sc, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h Handlers) CreateLead(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in leads.Input
	if !bindJSON(c, &in) {
		return
	}
	l, err := h.Leads.Create(c.Request.Context(), sc, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h Handlers) UpdateLead(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in leads.Input
	if !bindJSON(c, &in) {
		return
	}
	l, err := h.Leads.Update(c.Request.Context(), sc, c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h Handlers) SetLeadStatus(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	l, err := h.Leads.SetStatus(c.Request.Context(), sc, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h Handlers) DeleteLead(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	if err := h.Leads.Delete(c.Request.Context(), sc, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LeadCalls lists a lead's calls, newest first.
func (h Handlers) LeadCalls(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	p, ok := pageOnly(c)
	if !ok {
		return
	}
	res, err := h.Calls.ForLead(c.Request.Context(), sc, c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ImportLeads accepts a multipart "file" field holding a CSV.
func (h Handlers) ImportLeads(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	if h.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize+1<<20)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, apperr.Validation("file", "file exceeds %d bytes", h.MaxUploadSize))
			return
		}
		writeError(c, apperr.Validation("file", "multipart field \"file\" is required"))
		return
	}
	if h.MaxUploadSize > 0 && fh.Size > h.MaxUploadSize {
		writeError(c, apperr.Validation("file", "file exceeds %d bytes", h.MaxUploadSize))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, err)
		return
	}

	report, err := h.Leads.ImportCSV(c.Request.Context(), sc, fh.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.LeadsImported.Add(float64(report.Imported))
		h.Metrics.ImportRowErrors.Add(float64(report.Failed))
	}
	c.JSON(http.StatusOK, report)
}

// ExportLeads streams leads.csv. With archive=true the file is also stored
// and a presigned link is returned in X-Archive-URL.
func (h Handlers) ExportLeads(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var status leads.Status
	if raw := c.Query("status"); raw != "" {
		s, err := leads.ParseStatus(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		status = s
	}
	archive := false
	if raw := c.Query("archive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, apperr.Validation("archive", "archive must be a boolean"))
			return
		}
		archive = v
	}

	res, err := h.Leads.ExportCSV(c.Request.Context(), sc, status, archive)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.ArchiveURL != "" {
		c.Header(HeaderArchiveURL, res.ArchiveURL)
	}
	c.Header("Content-Disposition", `attachment; filename="leads.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", res.Body)
}
