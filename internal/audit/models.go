package audit

import "time"

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - tenant_id is required; events are written through a store.Scope.
// - Recording is best-effort; critical flows never fail on audit errors.
type Event struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`

	// ActorID is the authenticated user causing the event, or "system".
	ActorID string `json:"actor_id,omitempty"`
	Action  Action `json:"action"`

	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type Action string

const (
	ActionUserRegistered        Action = "user.registered"
	ActionUserLogin             Action = "user.login"
	ActionUserDisabled          Action = "user.disabled"
	ActionUserEnabled           Action = "user.enabled"
	ActionLeadImport            Action = "lead.import"
	ActionCampaignStatusChanged Action = "campaign.status_changed"
	ActionCallStatusChanged     Action = "call.status_changed"
	ActionAIConfigChanged       Action = "ai_config.changed"
)
