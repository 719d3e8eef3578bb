package store

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenantA = "9b2f0c9e-4f64-4c55-9a63-7a8f8d1c2b01"
	tenantB = "3c1d7e52-0a3e-4d9b-8f0e-2b6a5c4d3e02"
)

func mustScope(t *testing.T, tenant string) Scope {
	t.Helper()
	s, err := NewScope(tenant, "user-1")
	require.NoError(t, err)
	return s
}

func TestNewScope_RequiresTenantUUID(t *testing.T) {
	_, err := NewScope("", "u")
	assert.ErrorIs(t, err, ErrNoScope)
	_, err = NewScope("not-a-uuid", "u")
	assert.ErrorIs(t, err, ErrNoScope)
	assert.False(t, Scope{}.Valid())
}

func TestScopedBuilders_AlwaysFilterByTenant(t *testing.T) {
	s := mustScope(t, tenantA)

	builders := map[string]sq.Sqlizer{
		"select": s.Select("leads", "id").Where(sq.Eq{"status": "new"}),
		"count":  s.Select("calls", "COUNT(*)"),
		"update": s.Update("campaigns", map[string]any{"name": "x"}).Where(sq.Eq{"id": "c1"}),
		"delete": s.Delete("leads").Where(sq.Eq{"id": "l1"}),
	}
	for name, b := range builders {
		query, args, err := b.ToSql()
		require.NoError(t, err, name)
		assert.Contains(t, query, "WHERE tenant_id = $", name)
		assert.Contains(t, args, tenantA, name)
	}
}

func TestSelect_TenantPredicateComesFirst(t *testing.T) {
	s := mustScope(t, tenantA)
	query, args, err := s.Select("leads", "id", "phone").Where(sq.Eq{"id": "l1"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, phone FROM leads WHERE tenant_id = $1 AND id = $2", query)
	assert.Equal(t, []any{tenantA, "l1"}, args)
}

func TestSelect_CallerOrClauseCannotEscapeTenant(t *testing.T) {
	s := mustScope(t, tenantA)
	query, _, err := s.Select("leads", "id").
		Where(sq.Or{sq.Eq{"status": "new"}, sq.Eq{"status": "lost"}}).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "SELECT id FROM leads WHERE tenant_id = $1 AND ("), query)
}

func TestInsert_OverwritesCallerTenant(t *testing.T) {
	s := mustScope(t, tenantA)
	values := map[string]any{"phone": "+15550100", "tenant_id": tenantB}

	query, args, err := s.Insert("leads", values).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO leads (phone,tenant_id) VALUES ($1,$2)", query)
	assert.Equal(t, []any{"+15550100", tenantA}, args)
	// caller map is left untouched
	assert.Equal(t, tenantB, values["tenant_id"])
}

func TestUpdate_NeverWritesIdentityColumns(t *testing.T) {
	s := mustScope(t, tenantA)
	query, args, err := s.Update("leads", map[string]any{
		"id":        "other",
		"tenant_id": tenantB,
		"notes":     "hi",
	}).Where(sq.Eq{"id": "l1"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE leads SET notes = $1 WHERE tenant_id = $2 AND id = $3", query)
	assert.Equal(t, []any{"hi", tenantA, "l1"}, args)
}

func TestPage(t *testing.T) {
	p, err := NewPage(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, p)

	p, err = NewPage(3, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), p.Offset())

	_, err = NewPage(-1, 10)
	assert.Error(t, err)
	_, err = NewPage(1, MaxPageSize+1)
	assert.Error(t, err)

	r := NewResult[string](nil, 0, p)
	assert.NotNil(t, r.Items)
	assert.Equal(t, 3, r.Page)
	assert.Equal(t, 20, r.PageSize)
}
