package campaigns

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	rows *store.MemoryTable[Campaign]
	now  func() time.Time

	mu    sync.Mutex
	links map[string][]string // tenant/campaign -> lead ids
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		rows:  store.NewMemoryTable(func(c Campaign) string { return c.ID }),
		now:   time.Now,
		links: map[string][]string{},
	}
}

func linkKey(s store.Scope, campaignID string) string {
	return s.TenantID() + "/" + campaignID
}

func (r *MemoryRepo) Get(_ context.Context, s store.Scope, id string) (Campaign, error) {
	if !s.Valid() {
		return Campaign{}, store.ErrNoScope
	}
	c, ok := r.rows.Get(s, id)
	if !ok {
		return Campaign{}, apperr.NotFound("campaign not found")
	}
	return c, nil
}

func (r *MemoryRepo) List(_ context.Context, s store.Scope, f Filter) ([]Campaign, int, error) {
	if !s.Valid() {
		return nil, 0, store.ErrNoScope
	}
	if f.Sort != "" {
		if _, ok := table.Sortable[f.Sort]; !ok {
			return nil, 0, apperr.Validation("sort", "cannot sort by %q", f.Sort)
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	var out []Campaign
	for _, c := range r.rows.All(s) {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Description), q) {
			continue
		}
		out = append(out, c)
	}
	switch f.Sort {
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	case "status":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	}
	if f.Desc {
		slices.Reverse(out)
	}
	return store.Paginate(out, f.Page), len(out), nil
}

func (r *MemoryRepo) Create(ctx context.Context, s store.Scope, c Campaign, leadIDs []string) (Campaign, error) {
	if !s.Valid() {
		return Campaign{}, store.ErrNoScope
	}
	now := r.now().UTC()
	c.ID = uuid.NewString()
	c.TenantID = s.TenantID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.rows.Insert(s, c)
	if _, err := r.LinkLeads(ctx, s, c.ID, leadIDs); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (r *MemoryRepo) Update(_ context.Context, s store.Scope, c Campaign, leadIDs *[]string) (Campaign, error) {
	if !s.Valid() {
		return Campaign{}, store.ErrNoScope
	}
	cur, ok := r.rows.Get(s, c.ID)
	if !ok {
		return Campaign{}, apperr.NotFound("campaign not found")
	}
	c.TenantID = cur.TenantID
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = r.now().UTC()
	r.rows.Replace(s, c)
	if leadIDs != nil {
		r.mu.Lock()
		r.links[linkKey(s, c.ID)] = dedupe(*leadIDs)
		r.mu.Unlock()
	}
	return c, nil
}

func (r *MemoryRepo) Delete(_ context.Context, s store.Scope, id string) error {
	if !s.Valid() {
		return store.ErrNoScope
	}
	if !r.rows.Remove(s, id) {
		return apperr.NotFound("campaign not found")
	}
	r.mu.Lock()
	delete(r.links, linkKey(s, id))
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) LinkLeads(_ context.Context, s store.Scope, campaignID string, leadIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := linkKey(s, campaignID)
	added := 0
	for _, id := range leadIDs {
		if !slices.Contains(r.links[key], id) {
			r.links[key] = append(r.links[key], id)
			added++
		}
	}
	return added, nil
}

func (r *MemoryRepo) UnlinkLead(_ context.Context, s store.Scope, campaignID, leadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := linkKey(s, campaignID)
	i := slices.Index(r.links[key], leadID)
	if i < 0 {
		return notLinked()
	}
	r.links[key] = slices.Delete(r.links[key], i, i+1)
	return nil
}

func (r *MemoryRepo) LeadIDs(_ context.Context, s store.Scope, campaignID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.links[linkKey(s, campaignID)]...), nil
}

func (r *MemoryRepo) CountLeads(_ context.Context, s store.Scope, campaignID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links[linkKey(s, campaignID)]), nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
