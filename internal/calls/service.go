package calls

import (
	"context"
	"math"
	"strings"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/campaigns"
	"callcenter-platform/internal/store"
)

// Exister confirms an entity id belongs to the caller's tenant.
type Exister interface {
	Exists(ctx context.Context, s store.Scope, id string) error
}

type Service struct {
	repo      Repository
	leads     Exister
	campaigns Exister
	audit     *audit.Service
	now       func() time.Time
}

func NewService(repo Repository, leads, campaigns Exister, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, leads: leads, campaigns: campaigns, audit: auditSvc, now: time.Now}
}

func (s *Service) Get(ctx context.Context, sc store.Scope, id string) (Call, error) {
	return s.repo.Get(ctx, sc, id)
}

func (s *Service) FindByExternalID(ctx context.Context, sc store.Scope, externalID string) (Call, error) {
	if strings.TrimSpace(externalID) == "" {
		return Call{}, apperr.Validation("external_call_id", "external call id is required")
	}
	return s.repo.FindByExternalID(ctx, sc, externalID)
}

// List returns newest calls first unless a sort key is given.
func (s *Service) List(ctx context.Context, sc store.Scope, f Filter) (store.Result[Call], error) {
	if f.Sort == "" {
		f.Sort, f.Desc = "created_at", true
	}
	var err error
	if f.LeadID != "" {
		if f.LeadID, err = store.ParseID("lead_id", f.LeadID); err != nil {
			return store.Result[Call]{}, err
		}
	}
	if f.CampaignID != "" {
		if f.CampaignID, err = store.ParseID("campaign_id", f.CampaignID); err != nil {
			return store.Result[Call]{}, err
		}
	}
	items, total, err := s.repo.List(ctx, sc, f)
	if err != nil {
		return store.Result[Call]{}, err
	}
	return store.NewResult(items, total, f.Page), nil
}

func (s *Service) Active(ctx context.Context, sc store.Scope, p store.Page) (store.Result[Call], error) {
	return s.List(ctx, sc, Filter{Status: StatusActive, Page: p})
}

// Queue lists queued calls oldest first.
func (s *Service) Queue(ctx context.Context, sc store.Scope, p store.Page) (store.Result[Call], error) {
	return s.List(ctx, sc, Filter{Status: StatusQueued, Sort: "created_at", Page: p})
}

func (s *Service) ForLead(ctx context.Context, sc store.Scope, leadID string, p store.Page) (store.Result[Call], error) {
	if err := s.leads.Exists(ctx, sc, leadID); err != nil {
		return store.Result[Call]{}, err
	}
	return s.List(ctx, sc, Filter{LeadID: leadID, Page: p})
}

// Create records a queued call. Lead and campaign must belong to the tenant.
func (s *Service) Create(ctx context.Context, sc store.Scope, in CreateInput) (Call, error) {
	if strings.TrimSpace(in.LeadID) == "" {
		return Call{}, apperr.Validation("lead_id", "lead_id is required")
	}
	if err := s.leads.Exists(ctx, sc, in.LeadID); err != nil {
		return Call{}, err
	}
	if in.CampaignID != nil && *in.CampaignID == "" {
		in.CampaignID = nil
	}
	if in.CampaignID != nil {
		if err := s.campaigns.Exists(ctx, sc, *in.CampaignID); err != nil {
			return Call{}, err
		}
	}
	if in.ExternalCallID != nil && *in.ExternalCallID == "" {
		in.ExternalCallID = nil
	}
	return s.repo.Create(ctx, sc, Call{
		LeadID:         in.LeadID,
		CampaignID:     in.CampaignID,
		Status:         StatusQueued,
		Notes:          in.Notes,
		Voice:          in.Voice,
		ExternalCallID: in.ExternalCallID,
	})
}

// SetStatus applies one lifecycle transition. Terminal calls reject every
// status write.
func (s *Service) SetStatus(ctx context.Context, sc store.Scope, id string, in StatusInput) (Call, error) {
	to, err := ParseStatus(in.Status)
	if err != nil {
		return Call{}, err
	}
	cur, err := s.repo.Get(ctx, sc, id)
	if err != nil {
		return Call{}, err
	}
	if !CanTransition(cur.Status, to) {
		return Call{}, apperr.InvalidTransition("call", string(cur.Status), string(to))
	}
	next := cur
	next.Status = to
	if err := applyCommon(&next, in.Outcome, in.DurationSeconds, in.Notes); err != nil {
		return Call{}, err
	}

	now := s.now().UTC()
	switch {
	case to == StatusActive:
		if next.StartedAt == nil {
			next.StartedAt = &now
		}
	case to.Terminal():
		if next.EndedAt == nil {
			next.EndedAt = &now
		}
		if in.DurationSeconds == nil && next.StartedAt != nil && next.DurationSeconds == 0 {
			next.DurationSeconds = int(next.EndedAt.Sub(*next.StartedAt).Seconds())
		}
	}

	updated, err := s.repo.Transition(ctx, sc, cur.Status, next)
	if err != nil {
		return Call{}, err
	}
	s.audit.Record(ctx, sc, audit.ActionCallStatusChanged, "call", id, map[string]any{
		"from": string(cur.Status),
		"to":   string(to),
	})
	return updated, nil
}

// UpdateMetadata attaches late-arriving details. It never changes status
// and is allowed in every state.
func (s *Service) UpdateMetadata(ctx context.Context, sc store.Scope, id string, in MetadataInput) (Call, error) {
	cur, err := s.repo.Get(ctx, sc, id)
	if err != nil {
		return Call{}, err
	}
	next := cur
	if err := applyCommon(&next, in.Outcome, in.DurationSeconds, in.Notes); err != nil {
		return Call{}, err
	}
	if in.Transcript != nil {
		next.Transcript = *in.Transcript
	}
	if in.RecordingURL != nil {
		next.RecordingURL = strings.TrimSpace(*in.RecordingURL)
	}
	if in.Sentiment != nil {
		if *in.Sentiment == "" {
			next.Sentiment = ""
		} else if next.Sentiment, err = ParseSentiment(*in.Sentiment); err != nil {
			return Call{}, err
		}
	}
	if in.CostMinor != nil {
		if *in.CostMinor < 0 {
			return Call{}, apperr.Validation("cost_minor", "cost must not be negative")
		}
		next.CostMinor = *in.CostMinor
	}
	return s.repo.SaveMetadata(ctx, sc, next)
}

func applyCommon(c *Call, outcome *string, duration *int, notes *string) error {
	if outcome != nil && *outcome != "" {
		o, err := ParseOutcome(*outcome)
		if err != nil {
			return err
		}
		c.Outcome = o
	}
	if duration != nil {
		if *duration < 0 {
			return apperr.Validation("duration_seconds", "duration must not be negative")
		}
		c.DurationSeconds = *duration
	}
	if notes != nil {
		c.Notes = *notes
	}
	return nil
}

// Stats summarises calls created inside the window. Active and queued are
// live counts regardless of window.
func (s *Service) Stats(ctx context.Context, sc store.Scope, dateRange string) (Stats, error) {
	r, err := ParseRange(dateRange)
	if err != nil {
		return Stats{}, err
	}
	sum, err := s.repo.Summary(ctx, sc, r.Since(s.now().UTC()))
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		DateRange:          r.Key,
		TotalCalls:         sum.Total,
		ActiveCalls:        sum.Active,
		Queued:             sum.Queued,
		Completed:          sum.Completed,
		Failed:             sum.Failed,
		AnswerRate:         Percent(sum.Completed, sum.Total),
		SuccessRate:        Percent(sum.Interested, sum.Completed),
		AvgDurationSeconds: sum.AvgDurationSeconds,
	}, nil
}

// CampaignCallCounts feeds campaign statistics.
func (s *Service) CampaignCallCounts(ctx context.Context, sc store.Scope, campaignID string) (campaigns.CallCounts, error) {
	return s.repo.CampaignCounts(ctx, sc, campaignID)
}

// Percent returns part/whole*100 rounded to one decimal, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
