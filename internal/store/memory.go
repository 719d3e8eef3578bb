package store

import "sync"

// MemoryTable is a tenant-partitioned in-memory table backing the memory
// repositories used in tests. Rows of one tenant are invisible to another.
type MemoryTable[E any] struct {
	mu   sync.Mutex
	rows map[string][]E
	id   func(E) string
}

func NewMemoryTable[E any](id func(E) string) *MemoryTable[E] {
	return &MemoryTable[E]{rows: map[string][]E{}, id: id}
}

func (m *MemoryTable[E]) Insert(s Scope, e E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.tenantID] = append(m.rows[s.tenantID], e)
}

func (m *MemoryTable[E]) Get(s Scope, id string) (E, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows[s.tenantID] {
		if m.id(e) == id {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// Replace swaps the stored row with the same id. It reports false when absent.
func (m *MemoryTable[E]) Replace(s Scope, e E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[s.tenantID]
	for i := range rows {
		if m.id(rows[i]) == m.id(e) {
			rows[i] = e
			return true
		}
	}
	return false
}

func (m *MemoryTable[E]) Remove(s Scope, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[s.tenantID]
	for i := range rows {
		if m.id(rows[i]) == id {
			m.rows[s.tenantID] = append(rows[:i:i], rows[i+1:]...)
			return true
		}
	}
	return false
}

// All returns the tenant's rows in insertion order.
func (m *MemoryTable[E]) All(s Scope) []E {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]E, len(m.rows[s.tenantID]))
	copy(out, m.rows[s.tenantID])
	return out
}

// Paginate slices items to the requested page.
func Paginate[E any](items []E, p Page) []E {
	if p.Size <= 0 {
		return items
	}
	start := int(p.Offset())
	if start >= len(items) {
		return []E{}
	}
	end := min(start+p.Size, len(items))
	return items[start:end]
}

// Every returns rows across all tenants, for checks of globally unique columns.
func (m *MemoryTable[E]) Every() []E {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []E
	for _, rows := range m.rows {
		out = append(out, rows...)
	}
	return out
}
