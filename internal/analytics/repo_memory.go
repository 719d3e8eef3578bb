package analytics

import (
	"context"
	"sync"

	"callcenter-platform/internal/store"
)

// MemoryRepo is an in-memory reporting source for tests. Reads are filtered
// to the scope's tenant.
type MemoryRepo struct {
	mu sync.Mutex

	Calls     []CallRow
	Campaigns []CampaignRef
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(_ context.Context, s store.Scope, w Window) ([]CallRow, error) {
	if !s.Valid() {
		return nil, store.ErrNoScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRow, 0)
	for _, c := range r.Calls {
		if c.TenantID == s.TenantID() && w.contains(c.CreatedAt) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListCampaigns(_ context.Context, s store.Scope) ([]CampaignRef, error) {
	if !s.Valid() {
		return nil, store.ErrNoScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CampaignRef, 0)
	for _, c := range r.Campaigns {
		if c.TenantID == s.TenantID() {
			out = append(out, c)
		}
	}
	return out, nil
}
