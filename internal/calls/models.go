package calls

import (
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"
)

// Call is one outbound or inbound call placed for a lead.
//
// Once Status is completed or failed it never changes again; transcript,
// sentiment, recording and notes may still be attached afterwards.
type Call struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	LeadID          string     `json:"lead_id"`
	CampaignID      *string    `json:"campaign_id"`
	Status          Status     `json:"status"`
	Outcome         Outcome    `json:"outcome,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	Notes           string     `json:"notes"`
	ExternalCallID  *string    `json:"external_call_id"`
	Sentiment       Sentiment  `json:"sentiment,omitempty"`
	Transcript      string     `json:"transcript"`
	RecordingURL    string     `json:"recording_url"`
	Voice           string     `json:"voice"`
	CostMinor       int64      `json:"cost_minor"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Status string

const (
	StatusQueued    Status = "queued"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var transitions = map[Status][]Status{
	StatusQueued: {StatusActive, StatusFailed},
	StatusActive: {StatusCompleted, StatusFailed},
}

func ParseStatus(v string) (Status, error) {
	switch s := Status(v); s {
	case StatusQueued, StatusActive, StatusCompleted, StatusFailed:
		return s, nil
	default:
		return "", apperr.Validation("status", "invalid call status %q", v)
	}
}

// Terminal reports whether no further status change is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Outcome string

const (
	OutcomeInterested    Outcome = "interested"
	OutcomeNotInterested Outcome = "not_interested"
	OutcomeCallback      Outcome = "callback"
	OutcomeNoAnswer      Outcome = "no_answer"
	OutcomeVoicemail     Outcome = "voicemail"
)

func ParseOutcome(v string) (Outcome, error) {
	switch o := Outcome(v); o {
	case OutcomeInterested, OutcomeNotInterested, OutcomeCallback, OutcomeNoAnswer, OutcomeVoicemail:
		return o, nil
	default:
		return "", apperr.Validation("outcome", "invalid call outcome %q", v)
	}
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func ParseSentiment(v string) (Sentiment, error) {
	switch s := Sentiment(v); s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return s, nil
	default:
		return "", apperr.Validation("sentiment", "invalid sentiment %q", v)
	}
}

type CreateInput struct {
	LeadID         string  `json:"lead_id"`
	CampaignID     *string `json:"campaign_id"`
	Notes          string  `json:"notes"`
	Voice          string  `json:"voice"`
	ExternalCallID *string `json:"external_call_id"`
}

// StatusInput moves a call through its lifecycle.
type StatusInput struct {
	Status          string  `json:"status"`
	Outcome         *string `json:"outcome"`
	DurationSeconds *int    `json:"duration_seconds"`
	Notes           *string `json:"notes"`
}

// MetadataInput carries fields that may be attached in any state.
type MetadataInput struct {
	Transcript      *string `json:"transcript"`
	Sentiment       *string `json:"sentiment"`
	RecordingURL    *string `json:"recording_url"`
	Notes           *string `json:"notes"`
	Outcome         *string `json:"outcome"`
	DurationSeconds *int    `json:"duration_seconds"`
	CostMinor       *int64  `json:"cost_minor"`
}

type Filter struct {
	Status     Status
	Outcome    Outcome
	CampaignID string
	LeadID     string
	Sort       string
	Desc       bool
	Page       store.Page
}

// Summary is the raw aggregate behind Stats. Total, Completed, Failed,
// Interested and AvgDurationSeconds cover the requested window; Active and
// Queued are live counts.
type Summary struct {
	Total              int
	Completed          int
	Failed             int
	Interested         int
	AvgDurationSeconds int
	Active             int
	Queued             int
}

type Stats struct {
	DateRange          string  `json:"date_range"`
	TotalCalls         int     `json:"total_calls"`
	ActiveCalls        int     `json:"active_calls"`
	Queued             int     `json:"queued"`
	Completed          int     `json:"completed"`
	Failed             int     `json:"failed"`
	AnswerRate         float64 `json:"answer_rate"`
	SuccessRate        float64 `json:"success_rate"`
	AvgDurationSeconds int     `json:"avg_duration_seconds"`
}

// Range is a trailing reporting window such as "7d".
type Range struct {
	Key  string
	Days int
}

var ranges = map[string]int{"7d": 7, "30d": 30, "90d": 90}

// ParseRange accepts 7d, 30d or 90d; empty means 7d.
func ParseRange(v string) (Range, error) {
	if v == "" {
		v = "7d"
	}
	days, ok := ranges[v]
	if !ok {
		return Range{}, apperr.Validation("date_range", "date_range must be one of 7d, 30d, 90d")
	}
	return Range{Key: v, Days: days}, nil
}

// Since is the start of the window ending at now.
func (r Range) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -r.Days)
}

// ExternalID returns the provider call id or "".
func (c Call) ExternalID() string {
	if c.ExternalCallID == nil {
		return ""
	}
	return *c.ExternalCallID
}
