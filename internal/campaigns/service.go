package campaigns

import (
	"context"
	"math"
	"strings"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/store"
)

// LeadChecker filters lead ids down to those owned by the caller's tenant.
type LeadChecker interface {
	ExistingIDs(ctx context.Context, s store.Scope, ids []string) ([]string, error)
}

// CallCounter aggregates calls placed for a campaign.
type CallCounter interface {
	CampaignCallCounts(ctx context.Context, s store.Scope, campaignID string) (CallCounts, error)
}

type Service struct {
	repo  Repository
	leads LeadChecker
	calls CallCounter
	audit *audit.Service
}

func NewService(repo Repository, leads LeadChecker, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, leads: leads, audit: auditSvc}
}

// SetCallCounter wires the calls side after construction; calls depend on
// campaigns for their own validation.
func (s *Service) SetCallCounter(c CallCounter) { s.calls = c }

func (s *Service) Get(ctx context.Context, sc store.Scope, id string) (Campaign, error) {
	return s.repo.Get(ctx, sc, id)
}

// Exists returns NotFound unless the campaign belongs to the caller's tenant.
func (s *Service) Exists(ctx context.Context, sc store.Scope, id string) error {
	_, err := s.repo.Get(ctx, sc, id)
	return err
}

// List returns newest campaigns first unless a sort key is given.
func (s *Service) List(ctx context.Context, sc store.Scope, f Filter) (store.Result[Campaign], error) {
	if f.Sort == "" {
		f.Sort, f.Desc = "created_at", true
	}
	items, total, err := s.repo.List(ctx, sc, f)
	if err != nil {
		return store.Result[Campaign]{}, err
	}
	return store.NewResult(items, total, f.Page), nil
}

func (s *Service) Create(ctx context.Context, sc store.Scope, in Input) (Campaign, error) {
	c, err := apply(Campaign{Status: StatusDraft}, in)
	if err != nil {
		return Campaign{}, err
	}
	var leadIDs []string
	if in.LeadIDs != nil {
		if leadIDs, err = s.checkLeads(ctx, sc, *in.LeadIDs); err != nil {
			return Campaign{}, err
		}
	}
	return s.repo.Create(ctx, sc, c, leadIDs)
}

// Update merges non-nil fields; status changes go through SetStatus.
func (s *Service) Update(ctx context.Context, sc store.Scope, id string, in Input) (Campaign, error) {
	cur, err := s.repo.Get(ctx, sc, id)
	if err != nil {
		return Campaign{}, err
	}
	next, err := apply(cur, in)
	if err != nil {
		return Campaign{}, err
	}
	var leadIDs *[]string
	if in.LeadIDs != nil {
		ids, err := s.checkLeads(ctx, sc, *in.LeadIDs)
		if err != nil {
			return Campaign{}, err
		}
		leadIDs = &ids
	}
	return s.repo.Update(ctx, sc, next, leadIDs)
}

// SetStatus applies one lifecycle transition.
func (s *Service) SetStatus(ctx context.Context, sc store.Scope, id, status string) (Campaign, error) {
	to, err := ParseStatus(status)
	if err != nil {
		return Campaign{}, err
	}
	cur, err := s.repo.Get(ctx, sc, id)
	if err != nil {
		return Campaign{}, err
	}
	if !CanTransition(cur.Status, to) {
		return Campaign{}, apperr.InvalidTransition("campaign", string(cur.Status), string(to))
	}
	from := cur.Status
	cur.Status = to
	updated, err := s.repo.Update(ctx, sc, cur, nil)
	if err != nil {
		return Campaign{}, err
	}
	s.audit.Record(ctx, sc, audit.ActionCampaignStatusChanged, "campaign", id, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, sc store.Scope, id string) error {
	return s.repo.Delete(ctx, sc, id)
}

// AddLeads links leads to the campaign, ignoring ones already linked.
func (s *Service) AddLeads(ctx context.Context, sc store.Scope, id string, leadIDs []string) (int, error) {
	if _, err := s.repo.Get(ctx, sc, id); err != nil {
		return 0, err
	}
	if len(leadIDs) == 0 {
		return 0, apperr.Validation("lead_ids", "at least one lead id is required")
	}
	ids, err := s.checkLeads(ctx, sc, leadIDs)
	if err != nil {
		return 0, err
	}
	return s.repo.LinkLeads(ctx, sc, id, ids)
}

func (s *Service) RemoveLead(ctx context.Context, sc store.Scope, id, leadID string) error {
	if _, err := s.repo.Get(ctx, sc, id); err != nil {
		return err
	}
	return s.repo.UnlinkLead(ctx, sc, id, leadID)
}

func (s *Service) LeadIDs(ctx context.Context, sc store.Scope, id string) ([]string, error) {
	if _, err := s.repo.Get(ctx, sc, id); err != nil {
		return nil, err
	}
	return s.repo.LeadIDs(ctx, sc, id)
}

// Stats computes campaign progress from its lead set and placed calls.
func (s *Service) Stats(ctx context.Context, sc store.Scope, id string) (Stats, error) {
	if _, err := s.repo.Get(ctx, sc, id); err != nil {
		return Stats{}, err
	}
	total, err := s.repo.CountLeads(ctx, sc, id)
	if err != nil {
		return Stats{}, err
	}
	var counts CallCounts
	if s.calls != nil {
		if counts, err = s.calls.CampaignCallCounts(ctx, sc, id); err != nil {
			return Stats{}, err
		}
	}
	return Stats{
		CampaignID:         id,
		TotalLeads:         total,
		Called:             counts.Calls,
		Answered:           counts.Completed,
		Interested:         counts.Interested,
		ConversionRate:     percent(counts.Interested, counts.Calls),
		ProgressPercentage: percent(counts.LeadsCalled, total),
	}, nil
}

// percent returns part/whole*100 rounded to one decimal, 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

func (s *Service) checkLeads(ctx context.Context, sc store.Scope, raw []string) ([]string, error) {
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		id, err := store.ParseID("lead_ids", r)
		if err != nil {
			return nil, apperr.Validation("lead_ids", "lead id %q is not a UUID", r)
		}
		ids = append(ids, id)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	found, err := s.leads.ExistingIDs(ctx, sc, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		missing := make([]string, 0, len(ids)-len(found))
		known := make(map[string]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				missing = append(missing, id)
			}
		}
		return nil, apperr.Validation("lead_ids", "unknown lead ids: %s", strings.Join(missing, ", "))
	}
	return ids, nil
}

func apply(base Campaign, in Input) (Campaign, error) {
	c := base
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.StartDate != nil {
		c.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		c.EndDate = in.EndDate
	}
	if c.Name == "" {
		return Campaign{}, apperr.Validation("name", "campaign name is required")
	}
	if len(c.Name) > 255 {
		return Campaign{}, apperr.Validation("name", "campaign name is too long")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return Campaign{}, apperr.Validation("end_date", "end date must not precede start date")
	}
	return c, nil
}

func notLinked() error {
	return apperr.NotFound("lead is not part of this campaign")
}
