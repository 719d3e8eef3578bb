package aiconfig

import (
	"context"
	"maps"
	"sync"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Config
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]Config{}, now: time.Now}
}

func (r *MemoryRepo) Get(_ context.Context, s store.Scope) (Config, error) {
	if !s.Valid() {
		return Config{}, store.ErrNoScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[s.TenantID()]
	if !ok {
		return Config{}, apperr.NotFound("AI configuration not found")
	}
	return clone(c), nil
}

func (r *MemoryRepo) Create(_ context.Context, s store.Scope, c Config) (Config, error) {
	if !s.Valid() {
		return Config{}, store.ErrNoScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.TenantID()]; ok {
		return Config{}, errExists()
	}
	now := r.now().UTC()
	c.ID = uuid.NewString()
	c.TenantID = s.TenantID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.rows[s.TenantID()] = clone(c)
	return c, nil
}

func (r *MemoryRepo) Save(_ context.Context, s store.Scope, c Config) (Config, error) {
	if !s.Valid() {
		return Config{}, store.ErrNoScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	if cur, ok := r.rows[s.TenantID()]; ok {
		c.ID, c.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		c.ID, c.CreatedAt = uuid.NewString(), now
	}
	c.TenantID = s.TenantID()
	c.UpdatedAt = now
	r.rows[s.TenantID()] = clone(c)
	return c, nil
}

func clone(c Config) Config {
	c.IntentActions = maps.Clone(c.IntentActions)
	return c
}
