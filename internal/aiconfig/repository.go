package aiconfig

import (
	"context"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"

	"github.com/jackc/pgx/v5"
)

// Repository persists the single configuration row of a tenant.
type Repository interface {
	Get(ctx context.Context, s store.Scope) (Config, error)
	// Create fails with Conflict when the tenant already has a row.
	Create(ctx context.Context, s store.Scope, c Config) (Config, error)
	// Save inserts or overwrites the tenant's row.
	Save(ctx context.Context, s store.Scope, c Config) (Config, error)
}

var columns = []string{
	"id", "tenant_id", "system_prompt", "opening_line", "voice", "speed", "tone", "language",
	"max_duration_seconds", "temperature", "wait_for_greeting", "record_calls", "intent_actions",
	"created_at", "updated_at",
}

var table = store.Table[Config]{
	Name:    "ai_configurations",
	Entity:  "AI configuration",
	Columns: columns,
	Scan: func(row pgx.Row) (Config, error) {
		var c Config
		err := row.Scan(&c.ID, &c.TenantID, &c.SystemPrompt, &c.OpeningLine, &c.Voice, &c.Speed, &c.Tone, &c.Language,
			&c.MaxDurationSeconds, &c.Temperature, &c.WaitForGreeting, &c.RecordCalls, &c.IntentActions,
			&c.CreatedAt, &c.UpdatedAt)
		return c, err
	},
}

type PostgresRepo struct {
	rows *store.Repo[Config]
}

func NewPostgresRepo(db store.Querier) *PostgresRepo {
	return &PostgresRepo{rows: store.NewRepo(db, table)}
}

func (r *PostgresRepo) Get(ctx context.Context, s store.Scope) (Config, error) {
	return r.rows.FindOne(ctx, s)
}

func (r *PostgresRepo) Create(ctx context.Context, s store.Scope, c Config) (Config, error) {
	out, err := r.rows.Create(ctx, s, values(c))
	if apperr.KindOf(err) == apperr.KindConflict {
		return Config{}, errExists()
	}
	return out, err
}

func (r *PostgresRepo) Save(ctx context.Context, s store.Scope, c Config) (Config, error) {
	return r.rows.Upsert(ctx, s, "tenant_id", values(c))
}

func values(c Config) map[string]any {
	actions := c.IntentActions
	if actions == nil {
		actions = map[string]IntentAction{}
	}
	return map[string]any{
		"system_prompt":        c.SystemPrompt,
		"opening_line":         c.OpeningLine,
		"voice":                c.Voice,
		"speed":                c.Speed,
		"tone":                 c.Tone,
		"language":             c.Language,
		"max_duration_seconds": c.MaxDurationSeconds,
		"temperature":          c.Temperature,
		"wait_for_greeting":    c.WaitForGreeting,
		"record_calls":         c.RecordCalls,
		"intent_actions":       actions,
	}
}

func errExists() error {
	return apperr.Conflict("AI configuration already exists; use PATCH to update")
}
