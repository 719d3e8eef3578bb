package audit

import (
	"context"

	"callcenter-platform/internal/store"
)

// PostgresRepo appends to audit_events. It has no read or delete path.
type PostgresRepo struct {
	db store.Querier
}

func NewPostgresRepo(db store.Querier) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, s store.Scope, e Event) error {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := store.Exec(ctx, r.db, s.Insert("audit_events", map[string]any{
		"id":          e.ID,
		"actor_id":    e.ActorID,
		"action":      string(e.Action),
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
		"metadata":    metadata,
		"created_at":  e.CreatedAt,
	}))
	return err
}
