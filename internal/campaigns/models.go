package campaigns

import (
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"
)

type Campaign struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// transitions is the complete set of legal status changes.
var transitions = map[Status][]Status{
	StatusDraft:  {StatusActive},
	StatusActive: {StatusPaused, StatusCompleted},
	StatusPaused: {StatusActive},
}

func ParseStatus(v string) (Status, error) {
	switch s := Status(v); s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted:
		return s, nil
	default:
		return "", apperr.Validation("status", "invalid campaign status %q", v)
	}
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Input is used by create and update. Nil fields are left unchanged;
// LeadIDs, when set, replaces the campaign's lead set.
type Input struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	LeadIDs     *[]string  `json:"lead_ids"`
}

type Filter struct {
	Status Status
	Search string
	Sort   string
	Desc   bool
	Page   store.Page
}

// CallCounts are the call aggregates for one campaign.
type CallCounts struct {
	Calls       int
	LeadsCalled int
	Completed   int
	Interested  int
}

// Stats are computed on read and never stored.
type Stats struct {
	CampaignID         string  `json:"campaign_id"`
	TotalLeads         int     `json:"total_leads"`
	Called             int     `json:"called"`
	Answered           int     `json:"answered"`
	Interested         int     `json:"interested"`
	ConversionRate     float64 `json:"conversion_rate"`
	ProgressPercentage float64 `json:"progress_percentage"`
}
