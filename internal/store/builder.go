package store

import (
	"maps"

	sq "github.com/Masterminds/squirrel"
)

const (
	colID       = "id"
	colTenantID = "tenant_id"
	colUpdated  = "updated_at"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (s Scope) tenantPredicate() sq.Eq {
	return sq.Eq{colTenantID: s.tenantID}
}

// Select starts a SELECT on table filtered to the scope's tenant.
func (s Scope) Select(table string, columns ...string) sq.SelectBuilder {
	return psql.Select(columns...).From(table).Where(s.tenantPredicate())
}

// Insert builds an INSERT whose tenant_id column is always the scope's tenant,
// whatever values carries.
func (s Scope) Insert(table string, values map[string]any) sq.InsertBuilder {
	row := maps.Clone(values)
	if row == nil {
		row = map[string]any{}
	}
	row[colTenantID] = s.tenantID
	return psql.Insert(table).SetMap(row)
}

// Update builds an UPDATE restricted to the scope's tenant. id and tenant_id
// are never written.
func (s Scope) Update(table string, values map[string]any) sq.UpdateBuilder {
	set := maps.Clone(values)
	delete(set, colID)
	delete(set, colTenantID)
	return psql.Update(table).SetMap(set).Where(s.tenantPredicate())
}

// Delete builds a DELETE restricted to the scope's tenant.
func (s Scope) Delete(table string) sq.DeleteBuilder {
	return psql.Delete(table).Where(s.tenantPredicate())
}
