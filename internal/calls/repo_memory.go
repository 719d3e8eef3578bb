package calls

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/campaigns"
	"callcenter-platform/internal/store"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	// mu makes read-check-write sequences atomic
	mu   sync.Mutex
	rows *store.MemoryTable[Call]
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		rows: store.NewMemoryTable(func(c Call) string { return c.ID }),
		now:  time.Now,
	}
}

func (r *MemoryRepo) Get(_ context.Context, s store.Scope, id string) (Call, error) {
	if !s.Valid() {
		return Call{}, store.ErrNoScope
	}
	c, ok := r.rows.Get(s, id)
	if !ok {
		return Call{}, apperr.NotFound("call not found")
	}
	return c, nil
}

func (r *MemoryRepo) FindByExternalID(_ context.Context, s store.Scope, externalID string) (Call, error) {
	if !s.Valid() {
		return Call{}, store.ErrNoScope
	}
	for _, c := range r.rows.All(s) {
		if c.ExternalCallID != nil && *c.ExternalCallID == externalID {
			return c, nil
		}
	}
	return Call{}, apperr.NotFound("call not found")
}

func (r *MemoryRepo) List(_ context.Context, s store.Scope, f Filter) ([]Call, int, error) {
	if !s.Valid() {
		return nil, 0, store.ErrNoScope
	}
	if f.Sort != "" {
		if _, ok := table.Sortable[f.Sort]; !ok {
			return nil, 0, apperr.Validation("sort", "cannot sort by %q", f.Sort)
		}
	}
	var out []Call
	for _, c := range r.rows.All(s) {
		if (f.Status != "" && c.Status != f.Status) ||
			(f.Outcome != "" && c.Outcome != f.Outcome) ||
			(f.LeadID != "" && c.LeadID != f.LeadID) ||
			(f.CampaignID != "" && (c.CampaignID == nil || *c.CampaignID != f.CampaignID)) {
			continue
		}
		out = append(out, c)
	}
	if f.Sort == "duration_seconds" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].DurationSeconds < out[j].DurationSeconds })
	}
	if f.Desc {
		slices.Reverse(out)
	}
	return store.Paginate(out, f.Page), len(out), nil
}

func (r *MemoryRepo) Create(_ context.Context, s store.Scope, c Call) (Call, error) {
	if !s.Valid() {
		return Call{}, store.ErrNoScope
	}
	if c.ExternalCallID != nil {
		// external ids are unique across tenants
		if r.externalTaken(*c.ExternalCallID) {
			return Call{}, apperr.Conflict("call already exists")
		}
	}
	now := r.now().UTC()
	c.ID = uuid.NewString()
	c.TenantID = s.TenantID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.rows.Insert(s, c)
	return c, nil
}

func (r *MemoryRepo) externalTaken(id string) bool {
	for _, c := range r.rows.Every() {
		if c.ExternalCallID != nil && *c.ExternalCallID == id {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) Transition(_ context.Context, s store.Scope, from Status, c Call) (Call, error) {
	if !s.Valid() {
		return Call{}, store.ErrNoScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows.Get(s, c.ID)
	if !ok {
		return Call{}, apperr.NotFound("call not found")
	}
	if cur.Status != from {
		return Call{}, apperr.InvalidTransition("call", string(cur.Status), string(c.Status))
	}
	cur.Status = c.Status
	cur.Outcome = c.Outcome
	cur.DurationSeconds = c.DurationSeconds
	cur.Notes = c.Notes
	cur.StartedAt, cur.EndedAt = c.StartedAt, c.EndedAt
	cur.UpdatedAt = r.now().UTC()
	r.rows.Replace(s, cur)
	return cur, nil
}

func (r *MemoryRepo) SaveMetadata(_ context.Context, s store.Scope, c Call) (Call, error) {
	if !s.Valid() {
		return Call{}, store.ErrNoScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows.Get(s, c.ID)
	if !ok {
		return Call{}, apperr.NotFound("call not found")
	}
	cur.Outcome = c.Outcome
	cur.DurationSeconds = c.DurationSeconds
	cur.Notes = c.Notes
	cur.Sentiment = c.Sentiment
	cur.Transcript = c.Transcript
	cur.RecordingURL = c.RecordingURL
	cur.CostMinor = c.CostMinor
	cur.UpdatedAt = r.now().UTC()
	r.rows.Replace(s, cur)
	return cur, nil
}

func (r *MemoryRepo) Summary(_ context.Context, s store.Scope, since time.Time) (Summary, error) {
	if !s.Valid() {
		return Summary{}, store.ErrNoScope
	}
	var out Summary
	var durations int
	for _, c := range r.rows.All(s) {
		switch c.Status {
		case StatusActive:
			out.Active++
		case StatusQueued:
			out.Queued++
		}
		if c.CreatedAt.Before(since) {
			continue
		}
		out.Total++
		switch c.Status {
		case StatusCompleted:
			out.Completed++
			durations += c.DurationSeconds
			if c.Outcome == OutcomeInterested {
				out.Interested++
			}
		case StatusFailed:
			out.Failed++
		}
	}
	if out.Completed > 0 {
		out.AvgDurationSeconds = durations / out.Completed
	}
	return out, nil
}

func (r *MemoryRepo) CampaignCounts(_ context.Context, s store.Scope, campaignID string) (campaigns.CallCounts, error) {
	var out campaigns.CallCounts
	leads := map[string]bool{}
	for _, c := range r.rows.All(s) {
		if c.CampaignID == nil || *c.CampaignID != campaignID {
			continue
		}
		out.Calls++
		leads[c.LeadID] = true
		if c.Status == StatusCompleted {
			out.Completed++
		}
		if c.Outcome == OutcomeInterested {
			out.Interested++
		}
	}
	out.LeadsCalled = len(leads)
	return out, nil
}

// SetCreatedAt backdates a stored call for window tests.
func (r *MemoryRepo) SetCreatedAt(s store.Scope, id string, at time.Time) {
	if c, ok := r.rows.Get(s, id); ok {
		c.CreatedAt = at
		r.rows.Replace(s, c)
	}
}
