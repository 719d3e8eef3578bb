package leads

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	rows *store.MemoryTable[Lead]
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		rows: store.NewMemoryTable(func(l Lead) string { return l.ID }),
		now:  time.Now,
	}
}

func (r *MemoryRepo) Get(_ context.Context, s store.Scope, id string) (Lead, error) {
	if !s.Valid() {
		return Lead{}, store.ErrNoScope
	}
	l, ok := r.rows.Get(s, id)
	if !ok {
		return Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (r *MemoryRepo) List(_ context.Context, s store.Scope, f Filter) ([]Lead, int, error) {
	if !s.Valid() {
		return nil, 0, store.ErrNoScope
	}
	var out []Lead
	for _, l := range r.rows.All(s) {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Search != "" && !matches(l, f.Search) {
			continue
		}
		out = append(out, l)
	}
	if f.Sort != "" && f.Sort != "created_at" {
		if _, ok := table.Sortable[f.Sort]; !ok {
			return nil, 0, apperr.Validation("sort", "cannot sort by %q", f.Sort)
		}
		sort.SliceStable(out, func(i, j int) bool { return sortKey(out[i], f.Sort) < sortKey(out[j], f.Sort) })
	}
	if f.Desc {
		slices.Reverse(out)
	}
	return store.Paginate(out, f.Page), len(out), nil
}

func sortKey(l Lead, key string) string {
	switch key {
	case "first_name":
		return l.FirstName
	case "last_name":
		return l.LastName
	case "company":
		return l.Company
	case "status":
		return string(l.Status)
	case "updated_at":
		return l.UpdatedAt.Format(time.RFC3339Nano)
	}
	return l.CreatedAt.Format(time.RFC3339Nano)
}

func matches(l Lead, q string) bool {
	q = strings.ToLower(q)
	for _, v := range []string{l.FirstName, l.LastName, l.Email, l.Phone, l.Company} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) Create(_ context.Context, s store.Scope, l Lead) (Lead, error) {
	if !s.Valid() {
		return Lead{}, store.ErrNoScope
	}
	now := r.now().UTC()
	l.ID = uuid.NewString()
	l.TenantID = s.TenantID()
	l.CreatedAt, l.UpdatedAt = now, now
	r.rows.Insert(s, l)
	return l, nil
}

func (r *MemoryRepo) CreateMany(ctx context.Context, s store.Scope, ls []Lead) ([]Lead, error) {
	out := make([]Lead, 0, len(ls))
	for _, l := range ls {
		created, err := r.Create(ctx, s, l)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *MemoryRepo) Update(_ context.Context, s store.Scope, l Lead) (Lead, error) {
	if !s.Valid() {
		return Lead{}, store.ErrNoScope
	}
	cur, ok := r.rows.Get(s, l.ID)
	if !ok {
		return Lead{}, apperr.NotFound("lead not found")
	}
	l.TenantID = cur.TenantID
	l.CreatedAt = cur.CreatedAt
	l.UpdatedAt = r.now().UTC()
	r.rows.Replace(s, l)
	return l, nil
}

func (r *MemoryRepo) Delete(_ context.Context, s store.Scope, id string) error {
	if !s.Valid() {
		return store.ErrNoScope
	}
	if !r.rows.Remove(s, id) {
		return apperr.NotFound("lead not found")
	}
	return nil
}

func (r *MemoryRepo) ExistingIDs(_ context.Context, s store.Scope, ids []string) ([]string, error) {
	out := []string{}
	for _, raw := range ids {
		id, err := store.ParseID("lead_ids", raw)
		if err != nil {
			continue
		}
		if _, ok := r.rows.Get(s, id); ok {
			out = append(out, id)
		}
	}
	return out, nil
}
