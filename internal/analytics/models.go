package analytics

import (
	"time"

	"callcenter-platform/internal/calls"
)

// Window bounds a query on calls.created_at. A zero bound is open.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// CallRow is the slice of a call the reports aggregate over.
type CallRow struct {
	ID              string
	TenantID        string
	CampaignID      string
	Status          calls.Status
	Outcome         calls.Outcome
	DurationSeconds int
	CostMinor       int64
	CreatedAt       time.Time
}

type CampaignRef struct {
	ID       string
	TenantID string
	Name     string
}

type Dashboard struct {
	DateRange        string  `json:"date_range"`
	TotalCalls       int     `json:"total_calls"`
	AnswerRate       float64 `json:"answer_rate"`
	InterestedLeads  int     `json:"interested_leads"`
	AvgDuration      string  `json:"avg_duration"`
	CostPerLead      float64 `json:"cost_per_lead"`
	TotalCallsChange float64 `json:"total_calls_change"`
	AnswerRateChange float64 `json:"answer_rate_change"`
}

type DayBucket struct {
	Date       string `json:"date"`
	Label      string `json:"label"`
	Calls      int    `json:"calls"`
	Answered   int    `json:"answered"`
	Interested int    `json:"interested"`
}

type OutcomeShare struct {
	Outcome    calls.Outcome `json:"outcome"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"`
}

type CampaignPerformance struct {
	CampaignID     string  `json:"campaign_id"`
	Name           string  `json:"name"`
	TotalCalls     int     `json:"total_calls"`
	Answered       int     `json:"answered"`
	Interested     int     `json:"interested"`
	ConversionRate float64 `json:"conversion_rate"`
	CostPerLead    float64 `json:"cost_per_lead"`
}
