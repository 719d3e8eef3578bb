package campaigns

import (
	"context"
	"strings"
	"time"

	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Repository is the tenant-scoped persistence contract for campaigns and
// their lead sets.
type Repository interface {
	Get(ctx context.Context, s store.Scope, id string) (Campaign, error)
	List(ctx context.Context, s store.Scope, f Filter) ([]Campaign, int, error)
	// Create inserts c and links leadIDs in one unit of work.
	Create(ctx context.Context, s store.Scope, c Campaign, leadIDs []string) (Campaign, error)
	// Update writes c; a non-nil leadIDs replaces the lead set in the same unit of work.
	Update(ctx context.Context, s store.Scope, c Campaign, leadIDs *[]string) (Campaign, error)
	Delete(ctx context.Context, s store.Scope, id string) error
	LinkLeads(ctx context.Context, s store.Scope, campaignID string, leadIDs []string) (int, error)
	UnlinkLead(ctx context.Context, s store.Scope, campaignID, leadID string) error
	LeadIDs(ctx context.Context, s store.Scope, campaignID string) ([]string, error)
	CountLeads(ctx context.Context, s store.Scope, campaignID string) (int, error)
}

var columns = []string{"id", "tenant_id", "name", "description", "status", "start_date", "end_date", "created_at", "updated_at"}

var table = store.Table[Campaign]{
	Name:    "campaigns",
	Entity:  "campaign",
	Columns: columns,
	Scan: func(row pgx.Row) (Campaign, error) {
		var c Campaign
		err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.Status, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	},
	Sortable: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"name":       "name",
		"status":     "status",
		"start_date": "start_date",
	},
}

const linkTable = "campaign_leads"

type PostgresRepo struct {
	db   store.Pool
	rows *store.Repo[Campaign]
}

func NewPostgresRepo(db store.Pool) *PostgresRepo {
	return &PostgresRepo{db: db, rows: store.NewRepo(db, table)}
}

func (r *PostgresRepo) Get(ctx context.Context, s store.Scope, id string) (Campaign, error) {
	return r.rows.Get(ctx, s, id)
}

func (r *PostgresRepo) List(ctx context.Context, s store.Scope, f Filter) ([]Campaign, int, error) {
	var where []sq.Sqlizer
	if f.Status != "" {
		where = append(where, sq.Eq{"status": string(f.Status)})
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q) + "%"
		where = append(where, sq.Or{sq.ILike{"name": pattern}, sq.ILike{"description": pattern}})
	}
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

func (r *PostgresRepo) Create(ctx context.Context, s store.Scope, c Campaign, leadIDs []string) (Campaign, error) {
	var out Campaign
	err := utils.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		created, err := r.rows.With(tx).Create(ctx, s, values(c))
		if err != nil {
			return err
		}
		if _, err := link(ctx, tx, s, created.ID, leadIDs); err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

func (r *PostgresRepo) Update(ctx context.Context, s store.Scope, c Campaign, leadIDs *[]string) (Campaign, error) {
	var out Campaign
	err := utils.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		updated, err := r.rows.With(tx).Update(ctx, s, c.ID, values(c))
		if err != nil {
			return err
		}
		if leadIDs != nil {
			if _, err := store.Exec(ctx, tx, s.Delete(linkTable).Where(sq.Eq{"campaign_id": c.ID})); err != nil {
				return err
			}
			if _, err := link(ctx, tx, s, c.ID, *leadIDs); err != nil {
				return err
			}
		}
		out = updated
		return nil
	})
	return out, err
}

func (r *PostgresRepo) Delete(ctx context.Context, s store.Scope, id string) error {
	return r.rows.Delete(ctx, s, id)
}

func (r *PostgresRepo) LinkLeads(ctx context.Context, s store.Scope, campaignID string, leadIDs []string) (int, error) {
	return link(ctx, r.db, s, campaignID, leadIDs)
}

func link(ctx context.Context, q store.Querier, s store.Scope, campaignID string, leadIDs []string) (int, error) {
	added := 0
	for _, leadID := range leadIDs {
		n, err := store.Exec(ctx, q, s.Insert(linkTable, map[string]any{
			"campaign_id": campaignID,
			"lead_id":     leadID,
		}).Suffix("ON CONFLICT DO NOTHING"))
		if err != nil {
			return added, store.MapError("campaign lead", err)
		}
		added += int(n)
	}
	return added, nil
}

func (r *PostgresRepo) UnlinkLead(ctx context.Context, s store.Scope, campaignID, leadID string) error {
	n, err := store.Exec(ctx, r.db, s.Delete(linkTable).Where(sq.Eq{"campaign_id": campaignID, "lead_id": leadID}))
	if err != nil {
		return store.MapError("campaign lead", err)
	}
	if n == 0 {
		return notLinked()
	}
	return nil
}

func (r *PostgresRepo) LeadIDs(ctx context.Context, s store.Scope, campaignID string) ([]string, error) {
	return store.Strings(ctx, r.db, s.Select(linkTable, "lead_id::text").
		Where(sq.Eq{"campaign_id": campaignID}).
		OrderBy("created_at ASC", "lead_id ASC"))
}

func (r *PostgresRepo) CountLeads(ctx context.Context, s store.Scope, campaignID string) (int, error) {
	return store.ScalarInt(ctx, r.db, s.Select(linkTable, "COUNT(*)").Where(sq.Eq{"campaign_id": campaignID}))
}

func values(c Campaign) map[string]any {
	return map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"status":      string(c.Status),
		"start_date":  timeOrNil(c.StartDate),
		"end_date":    timeOrNil(c.EndDate),
	}
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
