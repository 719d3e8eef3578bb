package audit

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"callcenter-platform/internal/ratelimit"
	"callcenter-platform/internal/store"

	"github.com/pashagolub/pgxmock/v4"
)

const tenant = "9b2f0c9e-4f64-4c55-9a63-7a8f8d1c2b01"

func scope(t *testing.T) store.Scope {
	t.Helper()
	s, err := store.NewScope(tenant, "user-1")
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	return s
}

func TestService_AppendRequiresScopeAndAction(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), store.Scope{}, Event{Action: ActionUserLogin, EntityType: "user"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}
	if err := svc.Append(context.Background(), scope(t), Event{EntityType: "user"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}
}

func TestService_RecordFillsActorAndTenant(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	svc.Record(context.Background(), scope(t), ActionCampaignStatusChanged, "campaign", "c1", map[string]any{"to": "active"})

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].TenantID != tenant || evs[0].ActorID != "user-1" {
		t.Fatalf("unexpected event %+v", evs[0])
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}

func TestService_RecordCarriesClientIP(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := ratelimit.WithClientIP(context.Background(), "203.0.113.7")

	meta := map[string]any{"to": "active"}
	svc.Record(ctx, scope(t), ActionCampaignStatusChanged, "campaign", "c1", meta)
	svc.Record(ctx, scope(t), ActionUserLogin, "user", "u1", nil)
	svc.Record(context.Background(), scope(t), ActionUserLogin, "user", "u1", nil)

	evs := repo.Events()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	if evs[0].Metadata["client_ip"] != "203.0.113.7" || evs[0].Metadata["to"] != "active" {
		t.Fatalf("unexpected metadata %v", evs[0].Metadata)
	}
	if evs[1].Metadata["client_ip"] != "203.0.113.7" {
		t.Fatalf("expected client_ip on nil metadata, got %v", evs[1].Metadata)
	}
	if _, ok := evs[2].Metadata["client_ip"]; ok {
		t.Fatalf("unexpected client_ip without a request ip: %v", evs[2].Metadata)
	}
	if _, ok := meta["client_ip"]; ok {
		t.Fatalf("caller metadata was mutated")
	}
}

func TestService_NilIsNoop(t *testing.T) {
	var svc *Service
	svc.Record(context.Background(), scope(t), ActionUserLogin, "user", "u1", nil)
}

func TestPostgresRepo_AppendIsTenantScoped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events (action,actor_id,created_at,entity_id,entity_type,id,metadata,tenant_id)")).
		WithArgs("lead.import", "user-1", pgxmock.AnyArg(), "", "lead", pgxmock.AnyArg(), pgxmock.AnyArg(), tenant).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(NewPostgresRepo(mock))
	if err := svc.Append(context.Background(), scope(t), Event{Action: ActionLeadImport, EntityType: "lead"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
