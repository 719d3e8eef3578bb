package audit

import (
	"context"
	"errors"
	"maps"
	"time"

	"callcenter-platform/internal/ratelimit"
	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: there are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, s store.Scope, e Event) error
}

// Service records audit events. A nil *Service is a no-op recorder.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

// Append validates and stores e under the scope's tenant.
func (s *Service) Append(ctx context.Context, sc store.Scope, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if !sc.Valid() || e.Action == "" || e.EntityType == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.ActorID == "" {
		e.ActorID = sc.UserID()
	}
	return s.repo.Append(ctx, sc, e)
}

// Record is the best-effort form of Append: failures are logged and dropped.
// The caller's IP, when the request carried one, lands in metadata.client_ip.
func (s *Service) Record(ctx context.Context, sc store.Scope, action Action, entityType, entityID string, metadata map[string]any) {
	if s == nil {
		return
	}
	if ip := ratelimit.ClientIPFromContext(ctx); ip != "" {
		metadata = maps.Clone(metadata)
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["client_ip"] = ip
	}
	err := s.Append(ctx, sc, Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	})
	if err != nil {
		logger.From(ctx).Warn("audit append failed", "action", string(action), "entity_id", entityID, "err", err)
	}
}
