package ratelimit

import (
	"context"
	"sync"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/pkg/logger"
	"callcenter-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// importSlotTTL bounds how long a crashed import can hold its slot.
const importSlotTTL = 5 * time.Minute

func importKey(tenantID string) string { return "callcenter:imports:" + tenantID }

var errTooManyImports = apperr.RateLimited("too many concurrent imports, retry shortly")

// RedisImportCap caps concurrent CSV imports per tenant across API instances.
type RedisImportCap struct {
	rdb   *redis.Client
	limit int
}

func NewRedisImportCap(rdb *redis.Client, limit int) *RedisImportCap {
	return &RedisImportCap{rdb: rdb, limit: limit}
}

func (r *RedisImportCap) Acquire(ctx context.Context, tenantID string) (func(), error) {
	key := importKey(tenantID)
	ok, err := utils.AcquireSlot(ctx, r.rdb, key, r.limit, importSlotTTL)
	if err != nil {
		return nil, apperr.Unavailable("import limiter unavailable", err)
	}
	if !ok {
		return nil, errTooManyImports
	}
	return func() {
		// the request context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := utils.ReleaseSlot(ctx, r.rdb, key); err != nil {
			logger.From(ctx).Warn("import slot release failed", "tenant_id", tenantID, "err", err)
		}
	}, nil
}

// MemoryImportCap is the single-process fallback used without Redis.
type MemoryImportCap struct {
	mu     sync.Mutex
	active map[string]int
	limit  int
}

func NewMemoryImportCap(limit int) *MemoryImportCap {
	return &MemoryImportCap{active: make(map[string]int), limit: limit}
}

func (m *MemoryImportCap) Acquire(_ context.Context, tenantID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[tenantID] >= m.limit {
		return nil, errTooManyImports
	}
	m.active[tenantID]++

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.active[tenantID]--; m.active[tenantID] <= 0 {
				delete(m.active, tenantID)
			}
		})
	}, nil
}
