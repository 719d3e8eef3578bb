package leads

import (
	"context"
	"strings"

	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Repository is the tenant-scoped persistence contract for leads.
type Repository interface {
	Get(ctx context.Context, s store.Scope, id string) (Lead, error)
	List(ctx context.Context, s store.Scope, f Filter) ([]Lead, int, error)
	Create(ctx context.Context, s store.Scope, l Lead) (Lead, error)
	// CreateMany inserts all rows in one unit of work.
	CreateMany(ctx context.Context, s store.Scope, ls []Lead) ([]Lead, error)
	Update(ctx context.Context, s store.Scope, l Lead) (Lead, error)
	Delete(ctx context.Context, s store.Scope, id string) error
	// ExistingIDs returns the subset of ids owned by the scope's tenant.
	ExistingIDs(ctx context.Context, s store.Scope, ids []string) ([]string, error)
}

var columns = []string{"id", "tenant_id", "first_name", "last_name", "email", "phone", "company", "source", "status", "notes", "created_at", "updated_at"}

var table = store.Table[Lead]{
	Name:    "leads",
	Entity:  "lead",
	Columns: columns,
	Scan: func(row pgx.Row) (Lead, error) {
		var l Lead
		err := row.Scan(&l.ID, &l.TenantID, &l.FirstName, &l.LastName, &l.Email, &l.Phone,
			&l.Company, &l.Source, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
		return l, err
	},
	Sortable: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"first_name": "first_name",
		"last_name":  "last_name",
		"company":    "company",
		"status":     "status",
	},
}

type PostgresRepo struct {
	db   store.Pool
	rows *store.Repo[Lead]
}

func NewPostgresRepo(db store.Pool) *PostgresRepo {
	return &PostgresRepo{db: db, rows: store.NewRepo(db, table)}
}

func (r *PostgresRepo) Get(ctx context.Context, s store.Scope, id string) (Lead, error) {
	return r.rows.Get(ctx, s, id)
}

func (r *PostgresRepo) List(ctx context.Context, s store.Scope, f Filter) ([]Lead, int, error) {
	where := filterClauses(f)
	total, err := r.rows.Count(ctx, s, where...)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.rows.List(ctx, s, store.ListOptions{Where: where, Sort: f.Sort, Desc: f.Desc, Page: f.Page})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func filterClauses(f Filter) []sq.Sqlizer {
	var where []sq.Sqlizer
	if f.Status != "" {
		where = append(where, sq.Eq{"status": string(f.Status)})
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		where = append(where, sq.Or{
			sq.ILike{"first_name": pattern},
			sq.ILike{"last_name": pattern},
			sq.ILike{"email": pattern},
			sq.ILike{"phone": pattern},
			sq.ILike{"company": pattern},
		})
	}
	return where
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepo) Create(ctx context.Context, s store.Scope, l Lead) (Lead, error) {
	return r.rows.Create(ctx, s, values(l))
}

func (r *PostgresRepo) CreateMany(ctx context.Context, s store.Scope, ls []Lead) ([]Lead, error) {
	out := make([]Lead, 0, len(ls))
	err := utils.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		rows := r.rows.With(tx)
		for _, l := range ls {
			created, err := rows.Create(ctx, s, values(l))
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepo) Update(ctx context.Context, s store.Scope, l Lead) (Lead, error) {
	return r.rows.Update(ctx, s, l.ID, values(l))
}

func (r *PostgresRepo) Delete(ctx context.Context, s store.Scope, id string) error {
	return r.rows.Delete(ctx, s, id)
}

func (r *PostgresRepo) ExistingIDs(ctx context.Context, s store.Scope, ids []string) ([]string, error) {
	canonical := make([]string, 0, len(ids))
	for _, raw := range ids {
		if id, err := store.ParseID("lead_ids", raw); err == nil {
			canonical = append(canonical, id)
		}
	}
	if len(canonical) == 0 {
		return []string{}, nil
	}
	return store.Strings(ctx, r.db, s.Select("leads", "id::text").Where(sq.Eq{"id": canonical}))
}

func values(l Lead) map[string]any {
	return map[string]any{
		"first_name": l.FirstName,
		"last_name":  l.LastName,
		"email":      l.Email,
		"phone":      l.Phone,
		"company":    l.Company,
		"source":     l.Source,
		"status":     string(l.Status),
		"notes":      l.Notes,
	}
}
