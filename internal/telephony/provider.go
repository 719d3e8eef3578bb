package telephony

import "context"

// Provider is the provider-agnostic interface business logic dials through.
//
// Rules:
// - No provider HTTP calls outside provider adapters.
// - Request and response types stay provider-agnostic.
type Provider interface {
	Name() string
	Dial(ctx context.Context, req DialRequest) (DialResult, error)
	CallDetails(ctx context.Context, externalCallID string) (CallDetails, error)
}

// DialRequest starts one outbound AI call.
type DialRequest struct {
	PhoneNumber        string
	Task               string
	Voice              string
	FirstSentence      string
	Language           string
	WaitForGreeting    bool
	Record             bool
	MaxDurationSeconds int
	Temperature        float64
	// WebhookURL receives lifecycle events for the call.
	WebhookURL string
	// Metadata is echoed back on every webhook event.
	Metadata map[string]string
}

type DialResult struct {
	ExternalCallID string `json:"external_call_id"`
	Status         string `json:"status"`
}

// CallDetails is what the provider knows about a finished call.
type CallDetails struct {
	ExternalCallID  string
	DurationSeconds int
	AnsweredBy      string
	RecordingURL    string
	Voice           string
	Transcript      []Utterance
}

// Utterance is one turn of a transcript. Speaker is "user" for the lead.
type Utterance struct {
	Speaker string `json:"user"`
	Text    string `json:"text"`
}

const SpeakerLead = "user"
