package telephony

import (
	"context"
	"fmt"
	"strings"

	"callcenter-platform/internal/aiconfig"
	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/leads"
	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/logger"
)

type LeadReader interface {
	Get(ctx context.Context, s store.Scope, id string) (leads.Lead, error)
}

type CampaignChecker interface {
	Exists(ctx context.Context, s store.Scope, id string) error
}

type ConfigReader interface {
	Get(ctx context.Context, s store.Scope) (aiconfig.Config, error)
}

// CallStore is the slice of the calls service the dialer and webhook use.
type CallStore interface {
	Create(ctx context.Context, s store.Scope, in calls.CreateInput) (calls.Call, error)
	FindByExternalID(ctx context.Context, s store.Scope, externalID string) (calls.Call, error)
	SetStatus(ctx context.Context, s store.Scope, id string, in calls.StatusInput) (calls.Call, error)
	UpdateMetadata(ctx context.Context, s store.Scope, id string, in calls.MetadataInput) (calls.Call, error)
}

type InitiateInput struct {
	LeadID         string  `json:"lead_id"`
	CampaignID     *string `json:"campaign_id"`
	PromptOverride string  `json:"prompt_override"`
	Voice          string  `json:"voice"`
	FirstSentence  string  `json:"first_sentence"`
}

type InitiateResult struct {
	CallID         string `json:"call_id"`
	ExternalCallID string `json:"external_call_id"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

// Dialer places AI calls through the provider and records them.
type Dialer struct {
	provider   Provider
	leads      LeadReader
	campaigns  CampaignChecker
	configs    ConfigReader
	calls      CallStore
	webhookURL string
}

func NewDialer(p Provider, l LeadReader, c CampaignChecker, cfg ConfigReader, cs CallStore, webhookURL string) *Dialer {
	return &Dialer{provider: p, leads: l, campaigns: c, configs: cfg, calls: cs, webhookURL: webhookURL}
}

// Initiate dials a lead using the tenant's AI configuration and records a
// queued call carrying the provider's call id.
func (d *Dialer) Initiate(ctx context.Context, sc store.Scope, in InitiateInput) (InitiateResult, error) {
	if strings.TrimSpace(in.LeadID) == "" {
		return InitiateResult{}, apperr.Validation("lead_id", "lead_id is required")
	}
	lead, err := d.leads.Get(ctx, sc, in.LeadID)
	if err != nil {
		return InitiateResult{}, err
	}
	if in.CampaignID != nil && *in.CampaignID == "" {
		in.CampaignID = nil
	}
	if in.CampaignID != nil {
		if err := d.campaigns.Exists(ctx, sc, *in.CampaignID); err != nil {
			return InitiateResult{}, err
		}
	}
	cfg, err := d.configs.Get(ctx, sc)
	if err != nil {
		return InitiateResult{}, err
	}

	req := buildDialRequest(lead, cfg, in)
	req.WebhookURL = d.webhookURL
	req.Metadata = map[string]string{
		"tenant_id": sc.TenantID(),
		"lead_id":   lead.ID,
		"lead_name": displayName(lead),
	}
	if in.CampaignID != nil {
		req.Metadata["campaign_id"] = *in.CampaignID
	}

	res, err := d.provider.Dial(ctx, req)
	if err != nil {
		return InitiateResult{}, err
	}

	call, err := d.calls.Create(ctx, sc, calls.CreateInput{
		LeadID:         lead.ID,
		CampaignID:     in.CampaignID,
		Voice:          req.Voice,
		ExternalCallID: &res.ExternalCallID,
	})
	if err != nil {
		logger.From(ctx).Error("dialed call not recorded", "external_call_id", res.ExternalCallID, "err", err)
		return InitiateResult{}, err
	}
	logger.From(ctx).Info("call initiated", "call_id", call.ID, "provider", d.provider.Name())

	return InitiateResult{
		CallID:         call.ID,
		ExternalCallID: res.ExternalCallID,
		Status:         res.Status,
		Message:        "AI call initiated to " + displayName(lead),
	}, nil
}

// buildDialRequest picks the prompt (override, then configured, then the
// built-in script), voice and opening line.
func buildDialRequest(l leads.Lead, cfg aiconfig.Config, in InitiateInput) DialRequest {
	task := strings.TrimSpace(in.PromptOverride)
	if task == "" {
		task = strings.TrimSpace(cfg.SystemPrompt)
	}
	if task == "" {
		task = defaultScript(l)
	}

	voice := strings.ToLower(strings.TrimSpace(in.Voice))
	if voice == "" {
		voice = cfg.Voice
	}

	first := strings.TrimSpace(in.FirstSentence)
	if first == "" {
		first = strings.TrimSpace(cfg.OpeningLine)
	}
	if first == "" {
		first = fmt.Sprintf("Hi %s, how are you today?", l.FirstName)
	}

	return DialRequest{
		PhoneNumber:        l.Phone,
		Task:               task,
		Voice:              voice,
		FirstSentence:      first,
		Language:           cfg.Language,
		WaitForGreeting:    cfg.WaitForGreeting,
		Record:             cfg.RecordCalls,
		MaxDurationSeconds: cfg.MaxDurationSeconds,
		Temperature:        cfg.Temperature,
	}
}

func displayName(l leads.Lead) string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

func defaultScript(l leads.Lead) string {
	company := l.Company
	if company == "" {
		company = "Unknown"
	}
	return fmt.Sprintf(`You are a professional and friendly sales representative.

Lead Information:
- Name: %s
- Company: %s
- Phone: %s

Your Goal:
Have a natural conversation to understand their needs and qualify their interest.

Instructions:
1. Greet them warmly: "Hi %s, how are you today?"
2. Introduce yourself and company briefly
3. Ask about their current challenges or pain points
4. Listen actively - let them talk
5. If interested: Offer next steps (demo, meeting, information)
6. If not interested or busy: Thank them politely and offer email follow-up

Tone: Friendly, professional, consultative (never pushy or salesy)

Important Rules:
- Always respect their time
- If they say "not interested" or "busy", politely end the call
- Don't argue or pressure them
- Offer to send information via email as an alternative
- Keep the call under 5 minutes unless they're very engaged
`, displayName(l), company, l.Phone, l.FirstName)
}
