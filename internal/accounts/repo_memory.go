package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu      sync.Mutex
	tenants map[string]Tenant
	users   map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tenants: map[string]Tenant{}, users: map[string]User{}}
}

func (r *MemoryRepo) CreateTenantWithOwner(_ context.Context, t Tenant, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, apperr.Conflict("user already exists")
		}
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	r.tenants[t.ID] = t

	u.ID = uuid.NewString()
	u.TenantID = t.ID
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) UserByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return User{}, apperr.NotFound("user not found")
}

func (r *MemoryRepo) UserByID(_ context.Context, s store.Scope, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.TenantID != s.TenantID() {
		return User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (r *MemoryRepo) SetActive(_ context.Context, email string, active bool) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			u.IsActive = active
			u.UpdatedAt = time.Now().UTC()
			r.users[id] = u
			return u, nil
		}
	}
	return User{}, apperr.NotFound("user not found")
}

// Tenant returns a stored tenant; used by tests.
func (r *MemoryRepo) Tenant(id string) (Tenant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	return t, ok
}
