package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"callcenter-platform/internal/accounts"
	"callcenter-platform/internal/aiconfig"
	"callcenter-platform/internal/analytics"
	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/campaigns"
	"callcenter-platform/internal/leads"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/store"
	"callcenter-platform/internal/telephony"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Accounts  *accounts.Service
	Leads     *leads.Service
	Campaigns *campaigns.Service
	Calls     *calls.Service
	Dialer    *telephony.Dialer
	AIConfig  *aiconfig.Service
	Analytics *analytics.Service
	// Metrics is optional.
	Metrics *metrics.Metrics

	MaxUploadSize int64
}

// writeError renders err as the structured error body. Internal errors are
// logged with their cause and hidden from the client.
func writeError(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	if status >= 500 {
		logger.FromGin(c).Error("request failed", "err", err)
	}
	c.AbortWithStatusJSON(status, apperr.BodyOf(err))
}

// scope resolves the tenant scope placed on the request by the auth middleware.
func scope(c *gin.Context) (store.Scope, bool) {
	sc, err := store.ScopeFrom(c.Request.Context())
	if err != nil {
		writeError(c, apperr.Unauthorized("tenant identity required"))
		return store.Scope{}, false
	}
	return sc, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		field := snake(fe.Field())
		switch fe.Tag() {
		case "required":
			return apperr.Validation(field, "%s is required", field)
		case "email":
			return apperr.Validation(field, "invalid email")
		case "min":
			return apperr.Validation(field, "%s must be at least %s characters", field, fe.Param())
		default:
			return apperr.Validation(field, "%s is invalid", field)
		}
	}
	return apperr.Validation("body", "invalid JSON body")
}

// snake converts a Go field name such as FullName or LeadIDs to full_name
// or lead_ids.
func snake(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		if unicode.IsUpper(r) {
			if prevLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
			prevLower = false
		} else {
			prevLower = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

type listQuery struct {
	Page store.Page
	Sort string
	Desc bool
}

// parseList reads page, limit, sort and order. Order defaults to the
// resource's natural order when sort is absent.
func parseList(c *gin.Context) (listQuery, error) {
	number, err := queryInt(c, "page")
	if err != nil {
		return listQuery{}, err
	}
	size, err := queryInt(c, "limit")
	if err != nil {
		return listQuery{}, err
	}
	p, err := store.NewPage(number, size)
	if err != nil {
		return listQuery{}, err
	}

	q := listQuery{Page: p, Sort: strings.TrimSpace(c.Query("sort"))}
	switch strings.ToLower(c.Query("order")) {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return listQuery{}, apperr.Validation("order", "order must be asc or desc")
	}
	return q, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(key, "%s must be an integer", key)
	}
	if v == 0 {
		return 0, apperr.Validation(key, "%s must be >= 1", key)
	}
	return v, nil
}

// pageOnly is for endpoints with a fixed order.
func pageOnly(c *gin.Context) (store.Page, bool) {
	q, err := parseList(c)
	if err != nil {
		writeError(c, err)
		return store.Page{}, false
	}
	return q.Page, true
}
