package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/campaigns"
	"callcenter-platform/internal/store"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Repository is the tenant-scoped persistence contract for calls.
type Repository interface {
	Get(ctx context.Context, s store.Scope, id string) (Call, error)
	FindByExternalID(ctx context.Context, s store.Scope, externalID string) (Call, error)
	List(ctx context.Context, s store.Scope, f Filter) ([]Call, int, error)
	Create(ctx context.Context, s store.Scope, c Call) (Call, error)
	// Transition writes c's lifecycle fields only while the stored status is
	// still from. Otherwise it fails with InvalidTransition.
	Transition(ctx context.Context, s store.Scope, from Status, c Call) (Call, error)
	// SaveMetadata writes the late-arriving fields and never touches status.
	SaveMetadata(ctx context.Context, s store.Scope, c Call) (Call, error)
	Summary(ctx context.Context, s store.Scope, since time.Time) (Summary, error)
	CampaignCounts(ctx context.Context, s store.Scope, campaignID string) (campaigns.CallCounts, error)
}

var columns = []string{
	"id", "tenant_id", "lead_id", "campaign_id", "status", "outcome", "duration_seconds", "notes",
	"external_call_id", "sentiment", "transcript", "recording_url", "voice", "cost_minor",
	"started_at", "ended_at", "created_at", "updated_at",
}

func scanCall(row pgx.Row) (Call, error) {
	var c Call
	err := row.Scan(&c.ID, &c.TenantID, &c.LeadID, &c.CampaignID, &c.Status, &c.Outcome, &c.DurationSeconds, &c.Notes,
		&c.ExternalCallID, &c.Sentiment, &c.Transcript, &c.RecordingURL, &c.Voice, &c.CostMinor,
		&c.StartedAt, &c.EndedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

var table = store.Table[Call]{
	Name:    "calls",
	Entity:  "call",
	Columns: columns,
	Scan:    scanCall,
	Sortable: map[string]string{
		"created_at":       "created_at",
		"updated_at":       "updated_at",
		"started_at":       "started_at",
		"duration_seconds": "duration_seconds",
		"status":           "status",
	},
}

type PostgresRepo struct {
	db   store.Querier
	rows *store.Repo[Call]
}

func NewPostgresRepo(db store.Querier) *PostgresRepo {
	return &PostgresRepo{db: db, rows: store.NewRepo(db, table)}
}

func (r *PostgresRepo) Get(ctx context.Context, s store.Scope, id string) (Call, error) {
	return r.rows.Get(ctx, s, id)
}

func (r *PostgresRepo) FindByExternalID(ctx context.Context, s store.Scope, externalID string) (Call, error) {
	return r.rows.FindOne(ctx, s, sq.Eq{"external_call_id": externalID})
}

func filterClauses(f Filter) []sq.Sqlizer {
	var where []sq.Sqlizer
	if f.Status != "" {
		where = append(where, sq.Eq{"status": string(f.Status)})
	}
	if f.Outcome != "" {
		where = append(where, sq.Eq{"outcome": string(f.Outcome)})
	}
	if f.CampaignID != "" {
		where = append(where, sq.Eq{"campaign_id": f.CampaignID})
	}
	if f.LeadID != "" {
		where = append(where, sq.Eq{"lead_id": f.LeadID})
	}
	return where
}

func (r *PostgresRepo) List(ctx context.Context, s store.Scope, f Filter) ([]Call, int, error) {
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

func (r *PostgresRepo) Create(ctx context.Context, s store.Scope, c Call) (Call, error) {
	return r.rows.Create(ctx, s, values(c))
}

func (r *PostgresRepo) Transition(ctx context.Context, s store.Scope, from Status, c Call) (Call, error) {
	out, err := r.rows.UpdateWhere(ctx, s, c.ID, lifecycleValues(c), sq.Eq{"status": string(from)})
	if !errors.Is(err, apperr.ErrNotFound) {
		return out, err
	}
	cur, getErr := r.rows.Get(ctx, s, c.ID)
	if getErr != nil {
		return Call{}, getErr
	}
	return Call{}, apperr.InvalidTransition("call", string(cur.Status), string(c.Status))
}

func (r *PostgresRepo) SaveMetadata(ctx context.Context, s store.Scope, c Call) (Call, error) {
	return r.rows.Update(ctx, s, c.ID, metadataValues(c))
}

func (r *PostgresRepo) Summary(ctx context.Context, s store.Scope, since time.Time) (Summary, error) {
	var out Summary
	windowed, args, err := s.Select("calls",
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE status = 'completed')",
		"COUNT(*) FILTER (WHERE status = 'failed')",
		"COUNT(*) FILTER (WHERE status = 'completed' AND outcome = 'interested')",
		"COALESCE(AVG(duration_seconds) FILTER (WHERE status = 'completed'), 0)::bigint",
	).Where(sq.GtOrEq{"created_at": since}).ToSql()
	if err != nil {
		return out, fmt.Errorf("build summary: %w", err)
	}
	var total, completed, failed, interested, avg int64
	if err := r.db.QueryRow(ctx, windowed, args...).Scan(&total, &completed, &failed, &interested, &avg); err != nil {
		return out, store.MapError("call", err)
	}

	live, args, err := s.Select("calls",
		"COUNT(*) FILTER (WHERE status = 'active')",
		"COUNT(*) FILTER (WHERE status = 'queued')",
	).ToSql()
	if err != nil {
		return out, fmt.Errorf("build summary: %w", err)
	}
	var active, queued int64
	if err := r.db.QueryRow(ctx, live, args...).Scan(&active, &queued); err != nil {
		return out, store.MapError("call", err)
	}

	return Summary{
		Total:              int(total),
		Completed:          int(completed),
		Failed:             int(failed),
		Interested:         int(interested),
		AvgDurationSeconds: int(avg),
		Active:             int(active),
		Queued:             int(queued),
	}, nil
}

func (r *PostgresRepo) CampaignCounts(ctx context.Context, s store.Scope, campaignID string) (campaigns.CallCounts, error) {
	query, args, err := s.Select("calls",
		"COUNT(*)",
		"COUNT(DISTINCT lead_id)",
		"COUNT(*) FILTER (WHERE status = 'completed')",
		"COUNT(*) FILTER (WHERE outcome = 'interested')",
	).Where(sq.Eq{"campaign_id": campaignID}).ToSql()
	if err != nil {
		return campaigns.CallCounts{}, fmt.Errorf("build campaign counts: %w", err)
	}
	var calls, leads, completed, interested int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&calls, &leads, &completed, &interested); err != nil {
		return campaigns.CallCounts{}, store.MapError("call", err)
	}
	return campaigns.CallCounts{
		Calls:       int(calls),
		LeadsCalled: int(leads),
		Completed:   int(completed),
		Interested:  int(interested),
	}, nil
}

func lifecycleValues(c Call) map[string]any {
	return map[string]any{
		"status":           string(c.Status),
		"outcome":          string(c.Outcome),
		"duration_seconds": c.DurationSeconds,
		"notes":            c.Notes,
		"started_at":       c.StartedAt,
		"ended_at":         c.EndedAt,
	}
}

func metadataValues(c Call) map[string]any {
	return map[string]any{
		"outcome":          string(c.Outcome),
		"duration_seconds": c.DurationSeconds,
		"notes":            c.Notes,
		"sentiment":        string(c.Sentiment),
		"transcript":       c.Transcript,
		"recording_url":    c.RecordingURL,
		"cost_minor":       c.CostMinor,
	}
}

func values(c Call) map[string]any {
	return map[string]any{
		"lead_id":          c.LeadID,
		"campaign_id":      c.CampaignID,
		"status":           string(c.Status),
		"outcome":          string(c.Outcome),
		"duration_seconds": c.DurationSeconds,
		"notes":            c.Notes,
		"external_call_id": c.ExternalCallID,
		"sentiment":        string(c.Sentiment),
		"transcript":       c.Transcript,
		"recording_url":    c.RecordingURL,
		"voice":            c.Voice,
		"cost_minor":       c.CostMinor,
		"started_at":       c.StartedAt,
		"ended_at":         c.EndedAt,
	}
}
