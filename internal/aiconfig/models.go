package aiconfig

import "time"

// Config is the per-tenant AI calling agent configuration. A tenant has at
// most one.
type Config struct {
	ID                 string                  `json:"id"`
	TenantID           string                  `json:"tenant_id"`
	SystemPrompt       string                  `json:"system_prompt"`
	OpeningLine        string                  `json:"opening_line"`
	Voice              string                  `json:"voice"`
	Speed              string                  `json:"speed"`
	Tone               string                  `json:"tone"`
	Language           string                  `json:"language"`
	MaxDurationSeconds int                     `json:"max_duration_seconds"`
	Temperature        float64                 `json:"temperature"`
	WaitForGreeting    bool                    `json:"wait_for_greeting"`
	RecordCalls        bool                    `json:"record_calls"`
	IntentActions      map[string]IntentAction `json:"intent_actions"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// IntentAction is what the agent does when it detects an intent.
type IntentAction struct {
	Action  string `json:"action"`
	Enabled bool   `json:"enabled"`
}

var (
	Voices = []string{"nat", "josh", "florian", "derek", "june", "paige"}
	Speeds = []string{"slow", "normal", "fast"}
	Tones  = []string{"professional", "friendly", "casual", "formal"}
)

const (
	MinDurationSeconds = 30
	MaxDurationSeconds = 3600
)

// Defaults is the configuration a tenant gets before saving its own.
func Defaults() Config {
	return Config{
		Voice:              "nat",
		Speed:              "normal",
		Tone:               "professional",
		Language:           "en-US",
		MaxDurationSeconds: 300,
		Temperature:        0.7,
		WaitForGreeting:    true,
		RecordCalls:        true,
		IntentActions: map[string]IntentAction{
			"interested":     {Action: "transfer_to_sales", Enabled: true},
			"not_interested": {Action: "log_and_end", Enabled: true},
			"callback":       {Action: "schedule_followup", Enabled: true},
			"wrong_number":   {Action: "mark_invalid", Enabled: true},
		},
	}
}

// Input carries writable fields. PATCH merges the non-nil ones into the
// stored config; POST and PUT apply them over Defaults.
type Input struct {
	SystemPrompt       *string                  `json:"system_prompt"`
	OpeningLine        *string                  `json:"opening_line"`
	Voice              *string                  `json:"voice"`
	Speed              *string                  `json:"speed"`
	Tone               *string                  `json:"tone"`
	Language           *string                  `json:"language"`
	MaxDurationSeconds *int                     `json:"max_duration_seconds"`
	Temperature        *float64                 `json:"temperature"`
	WaitForGreeting    *bool                    `json:"wait_for_greeting"`
	RecordCalls        *bool                    `json:"record_calls"`
	IntentActions      *map[string]IntentAction `json:"intent_actions"`
}
