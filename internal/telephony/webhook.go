package telephony

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/pricing"
	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	HeaderWebhookSecret = "X-Webhook-Secret"

	EventCallStarted   = "call.started"
	EventCallCompleted = "call.completed"
	EventCallFailed    = "call.failed"
)

// WebhookEvent is the provider callback body.
type WebhookEvent struct {
	Event        string            `json:"event"`
	CallID       string            `json:"call_id"`
	ErrorMessage string            `json:"error_message"`
	Metadata     map[string]string `json:"metadata"`
}

// Pricer prices a finished call.
type Pricer interface {
	CallCost(voice string, durationSeconds int) (pricing.CallCost, error)
}

// WebhookHandler converts provider callbacks into call lifecycle changes.
//
// Tenant scoping: the tenant comes from the metadata attached when the call
// was dialed; the call is then looked up inside that tenant only.
type WebhookHandler struct {
	Provider Provider
	Calls    CallStore
	Pricing  Pricer
	// Secret, when set, must match the X-Webhook-Secret header.
	Secret string
	// Observe, when set, is told how each event was handled:
	// processed, ignored or error.
	Observe func(event, status string)
}

func (h WebhookHandler) observe(event, status string) {
	if h.Observe != nil {
		h.Observe(event, status)
	}
}

func (h WebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Secret != "" {
		got := c.GetHeader(HeaderWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.BodyOf(apperr.Unauthorized("invalid webhook secret")))
			return
		}
	}

	var ev WebhookEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		log.Warn("webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, apperr.BodyOf(apperr.Validation("body", "invalid webhook payload")))
		return
	}

	res, err := h.Process(c.Request.Context(), ev)
	if err != nil {
		log.Error("webhook processing failed", "event", ev.Event, "external_call_id", ev.CallID, "err", err)
		h.observe(ev.Event, "error")
		c.AbortWithStatusJSON(apperr.StatusOf(err), apperr.BodyOf(err))
		return
	}
	h.observe(ev.Event, res.Status)
	c.JSON(http.StatusOK, res)
}

// WebhookResult is the acknowledgement body.
type WebhookResult struct {
	Status string `json:"status"`
	Event  string `json:"event,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func ignored(reason string) WebhookResult {
	return WebhookResult{Status: "ignored", Reason: reason}
}

// Process applies one event. Unknown calls, tenants and events are
// acknowledged as ignored so the provider does not retry them.
func (h WebhookHandler) Process(ctx context.Context, ev WebhookEvent) (WebhookResult, error) {
	if ev.CallID == "" {
		return ignored("no call_id"), nil
	}
	sc, err := store.NewScope(ev.Metadata["tenant_id"], "")
	if err != nil {
		return ignored("unknown tenant"), nil
	}
	call, err := h.Calls.FindByExternalID(ctx, sc, ev.CallID)
	if errors.Is(err, apperr.ErrNotFound) {
		return ignored("call not found"), nil
	}
	if err != nil {
		return WebhookResult{}, err
	}

	switch ev.Event {
	case EventCallStarted:
		if call.Status.Terminal() || call.Status == calls.StatusActive {
			return ignored("call already " + string(call.Status)), nil
		}
		if _, err := h.Calls.SetStatus(ctx, sc, call.ID, calls.StatusInput{Status: string(calls.StatusActive)}); err != nil {
			return WebhookResult{}, err
		}
	case EventCallCompleted:
		if err := h.complete(ctx, sc, call); err != nil {
			return WebhookResult{}, err
		}
	case EventCallFailed:
		if call.Status.Terminal() {
			return ignored("call already " + string(call.Status)), nil
		}
		note := ev.ErrorMessage
		if note == "" {
			note = "Call failed"
		}
		if _, err := h.Calls.SetStatus(ctx, sc, call.ID, calls.StatusInput{Status: string(calls.StatusFailed), Notes: &note}); err != nil {
			return WebhookResult{}, err
		}
	default:
		return ignored("unsupported event"), nil
	}
	return WebhookResult{Status: "processed", Event: ev.Event}, nil
}

// complete fetches call details, classifies the transcript and prices the
// call. Calls that are already terminal only receive the metadata.
func (h WebhookHandler) complete(ctx context.Context, sc store.Scope, call calls.Call) error {
	d, err := h.Provider.CallDetails(ctx, call.ExternalID())
	if err != nil {
		return err
	}
	outcome := string(AnalyzeOutcome(d.Transcript))
	sentiment := string(AnalyzeSentiment(d.Transcript))
	transcript := FormatTranscript(d.Transcript)
	duration := d.DurationSeconds

	meta := calls.MetadataInput{
		Transcript:   &transcript,
		Sentiment:    &sentiment,
		RecordingURL: &d.RecordingURL,
	}
	if h.Pricing != nil {
		cost, err := h.Pricing.CallCost(d.Voice, duration)
		if err != nil {
			return apperr.Validation("call_length", "invalid call length %d", duration)
		}
		meta.CostMinor = &cost.TotalMinor
	}

	if call.Status == calls.StatusQueued {
		// the started event never arrived
		if _, err := h.Calls.SetStatus(ctx, sc, call.ID, calls.StatusInput{Status: string(calls.StatusActive)}); err != nil && !errors.Is(err, apperr.ErrInvalidTransition) {
			return err
		}
	}
	if !call.Status.Terminal() {
		in := calls.StatusInput{Status: string(calls.StatusCompleted), Outcome: &outcome, DurationSeconds: &duration}
		if note := CompletionNote(d.AnsweredBy, calls.Outcome(outcome)); note != "" {
			in.Notes = &note
		}
		// a concurrent terminal write wins; only the metadata is attached
		if _, err := h.Calls.SetStatus(ctx, sc, call.ID, in); err != nil && !errors.Is(err, apperr.ErrInvalidTransition) {
			return err
		}
	}
	_, err = h.Calls.UpdateMetadata(ctx, sc, call.ID, meta)
	return err
}
