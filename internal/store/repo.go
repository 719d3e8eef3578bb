package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"callcenter-platform/internal/apperr"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Table describes how an entity maps onto a tenant-owned table.
type Table[E any] struct {
	Name   string
	Entity string
	// Columns are selected, and returned by writes, in Scan order.
	Columns []string
	Scan    func(row pgx.Row) (E, error)
	// Sortable maps public sort keys to columns. Unknown keys are rejected.
	Sortable map[string]string
}

// ListOptions narrow a List call. Where clauses are ANDed with the tenant
// predicate; they can never replace it.
type ListOptions struct {
	Where []sq.Sqlizer
	Sort  string
	Desc  bool
	Page  Page
}

// Repo is the generic tenant-scoped repository. Every method takes a Scope
// and refuses to run without one.
type Repo[E any] struct {
	q Querier
	t Table[E]
}

func NewRepo[E any](q Querier, t Table[E]) *Repo[E] {
	return &Repo[E]{q: q, t: t}
}

// With returns a copy bound to q, typically a pgx.Tx.
func (r *Repo[E]) With(q Querier) *Repo[E] {
	return &Repo[E]{q: q, t: r.t}
}

func (r *Repo[E]) Table() Table[E] { return r.t }

func (r *Repo[E]) Get(ctx context.Context, s Scope, id string) (E, error) {
	var zero E
	if !s.Valid() {
		return zero, ErrNoScope
	}
	if !isUUID(id) {
		return zero, apperr.NotFound("%s not found", r.t.Entity)
	}
	return r.one(ctx, s.Select(r.t.Name, r.t.Columns...).Where(sq.Eq{colID: id}))
}

// FindOne returns the first row matching where, or NotFound.
func (r *Repo[E]) FindOne(ctx context.Context, s Scope, where ...sq.Sqlizer) (E, error) {
	var zero E
	if !s.Valid() {
		return zero, ErrNoScope
	}
	b := s.Select(r.t.Name, r.t.Columns...).Limit(1)
	for _, w := range where {
		b = b.Where(w)
	}
	return r.one(ctx, b)
}

// List returns one page ordered by the requested sort key, or creation order.
// Ties break on id so paging is stable.
func (r *Repo[E]) List(ctx context.Context, s Scope, opts ListOptions) ([]E, error) {
	if !s.Valid() {
		return nil, ErrNoScope
	}
	orderBy, err := r.orderBy(opts.Sort, opts.Desc)
	if err != nil {
		return nil, err
	}
	b := s.Select(r.t.Name, r.t.Columns...)
	for _, w := range opts.Where {
		b = b.Where(w)
	}
	b = b.OrderBy(orderBy...)
	if opts.Page.Size > 0 {
		b = b.Limit(uint64(opts.Page.Size)).Offset(opts.Page.Offset())
	}
	return r.many(ctx, b)
}

func (r *Repo[E]) Count(ctx context.Context, s Scope, where ...sq.Sqlizer) (int, error) {
	if !s.Valid() {
		return 0, ErrNoScope
	}
	b := s.Select(r.t.Name, "COUNT(*)")
	for _, w := range where {
		b = b.Where(w)
	}
	return scalarInt(ctx, r.q, b, r.t.Entity)
}

// Create inserts values. id and tenant_id are assigned here; caller supplied
// values for either are overwritten.
func (r *Repo[E]) Create(ctx context.Context, s Scope, values map[string]any) (E, error) {
	var zero E
	if !s.Valid() {
		return zero, ErrNoScope
	}
	row := make(map[string]any, len(values)+2)
	for k, v := range values {
		row[k] = v
	}
	row[colID] = uuid.NewString()
	return r.one(ctx, s.Insert(r.t.Name, row).Suffix(r.returning()))
}

// Upsert inserts values or, when a row conflicts on target, overwrites the
// given columns of that row. The existing id is kept.
func (r *Repo[E]) Upsert(ctx context.Context, s Scope, target string, values map[string]any) (E, error) {
	var zero E
	if !s.Valid() {
		return zero, ErrNoScope
	}
	row := make(map[string]any, len(values)+2)
	set := make([]string, 0, len(values)+1)
	for k, v := range values {
		row[k] = v
		if k != colID && k != colTenantID {
			set = append(set, k+" = EXCLUDED."+k)
		}
	}
	sort.Strings(set)
	set = append(set, colUpdated+" = NOW()")
	row[colID] = uuid.NewString()
	suffix := "ON CONFLICT (" + target + ") DO UPDATE SET " + strings.Join(set, ", ") + " " + r.returning()
	return r.one(ctx, s.Insert(r.t.Name, row).Suffix(suffix))
}

// Update applies patch to one row and returns the new state.
func (r *Repo[E]) Update(ctx context.Context, s Scope, id string, patch map[string]any) (E, error) {
	return r.UpdateWhere(ctx, s, id, patch)
}

// UpdateWhere is Update guarded by extra predicates. A row that exists but
// fails a predicate is reported as NotFound, same as a missing row.
func (r *Repo[E]) UpdateWhere(ctx context.Context, s Scope, id string, patch map[string]any, where ...sq.Sqlizer) (E, error) {
	var zero E
	if !s.Valid() {
		return zero, ErrNoScope
	}
	if !isUUID(id) {
		return zero, apperr.NotFound("%s not found", r.t.Entity)
	}
	set := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		set[k] = v
	}
	set[colUpdated] = sq.Expr("NOW()")
	b := s.Update(r.t.Name, set).Where(sq.Eq{colID: id})
	for _, w := range where {
		b = b.Where(w)
	}
	return r.one(ctx, b.Suffix(r.returning()))
}

func (r *Repo[E]) Delete(ctx context.Context, s Scope, id string) error {
	if !s.Valid() {
		return ErrNoScope
	}
	if !isUUID(id) {
		return apperr.NotFound("%s not found", r.t.Entity)
	}
	n, err := Exec(ctx, r.q, s.Delete(r.t.Name).Where(sq.Eq{colID: id}))
	if err != nil {
		return MapError(r.t.Entity, err)
	}
	if n == 0 {
		return apperr.NotFound("%s not found", r.t.Entity)
	}
	return nil
}

func (r *Repo[E]) one(ctx context.Context, b sq.Sqlizer) (E, error) {
	var zero E
	query, args, err := b.ToSql()
	if err != nil {
		return zero, fmt.Errorf("build %s query: %w", r.t.Entity, err)
	}
	e, err := r.t.Scan(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return zero, MapError(r.t.Entity, err)
	}
	return e, nil
}

func (r *Repo[E]) many(ctx context.Context, b sq.Sqlizer) ([]E, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", r.t.Entity, err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, MapError(r.t.Entity, err)
	}
	defer rows.Close()

	out := []E{}
	for rows.Next() {
		e, err := r.t.Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(r.t.Entity, err)
	}
	return out, nil
}

func (r *Repo[E]) orderBy(sort string, desc bool) ([]string, error) {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	col := "created_at"
	if sort != "" {
		c, ok := r.t.Sortable[sort]
		if !ok {
			return nil, apperr.Validation("sort", "cannot sort by %q", sort)
		}
		col = c
	}
	return []string{col + " " + dir, colID + " " + dir}, nil
}

func (r *Repo[E]) returning() string {
	out := "RETURNING "
	for i, c := range r.t.Columns {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// ParseID returns raw in canonical lowercase UUID form, or a validation
// error naming field. Filters and id lists go through it before reaching SQL.
func ParseID(field, raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", apperr.Validation(field, "%s must be a UUID", field)
	}
	return id.String(), nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
