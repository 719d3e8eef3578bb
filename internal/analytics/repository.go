package analytics

import (
	"context"

	"callcenter-platform/internal/store"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Repository reads the raw rows reports are computed from. Every method is
// tenant scoped.
type Repository interface {
	ListCalls(ctx context.Context, s store.Scope, w Window) ([]CallRow, error)
	ListCampaigns(ctx context.Context, s store.Scope) ([]CampaignRef, error)
}

var callRows = store.Table[CallRow]{
	Name:    "calls",
	Entity:  "call",
	Columns: []string{"id", "tenant_id", "COALESCE(campaign_id::text, '')", "status", "outcome", "duration_seconds", "cost_minor", "created_at"},
	Scan: func(row pgx.Row) (CallRow, error) {
		var c CallRow
		err := row.Scan(&c.ID, &c.TenantID, &c.CampaignID, &c.Status, &c.Outcome, &c.DurationSeconds, &c.CostMinor, &c.CreatedAt)
		return c, err
	},
}

var campaignRefs = store.Table[CampaignRef]{
	Name:     "campaigns",
	Entity:   "campaign",
	Columns:  []string{"id", "tenant_id", "name"},
	Sortable: map[string]string{"name": "name"},
	Scan: func(row pgx.Row) (CampaignRef, error) {
		var c CampaignRef
		err := row.Scan(&c.ID, &c.TenantID, &c.Name)
		return c, err
	},
}

type PostgresRepo struct {
	calls     *store.Repo[CallRow]
	campaigns *store.Repo[CampaignRef]
}

func NewPostgresRepo(db store.Querier) *PostgresRepo {
	return &PostgresRepo{
		calls:     store.NewRepo(db, callRows),
		campaigns: store.NewRepo(db, campaignRefs),
	}
}

func (r *PostgresRepo) ListCalls(ctx context.Context, s store.Scope, w Window) ([]CallRow, error) {
	var where []sq.Sqlizer
	if !w.From.IsZero() {
		where = append(where, sq.GtOrEq{"created_at": w.From})
	}
	if !w.To.IsZero() {
		where = append(where, sq.Lt{"created_at": w.To})
	}
	return r.calls.List(ctx, s, store.ListOptions{Where: where})
}

func (r *PostgresRepo) ListCampaigns(ctx context.Context, s store.Scope) ([]CampaignRef, error) {
	return r.campaigns.List(ctx, s, store.ListOptions{Sort: "name"})
}
