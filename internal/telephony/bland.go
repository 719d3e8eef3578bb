package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"callcenter-platform/internal/apperr"
)

const blandModel = "enhanced"

// BlandConfig configures the Bland AI adapter.
type BlandConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// BlandClient is the Bland AI Provider adapter.
type BlandClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewBlandClient(cfg BlandConfig) *BlandClient {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.bland.ai"
	}
	return &BlandClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (b *BlandClient) Name() string { return "bland" }

type blandDialPayload struct {
	PhoneNumber     string            `json:"phone_number"`
	Task            string            `json:"task"`
	Model           string            `json:"model"`
	Voice           string            `json:"voice"`
	FirstSentence   string            `json:"first_sentence,omitempty"`
	WaitForGreeting bool              `json:"wait_for_greeting"`
	Record          bool              `json:"record"`
	MaxDuration     int               `json:"max_duration"`
	Temperature     float64           `json:"temperature"`
	Language        string            `json:"language"`
	AMD             bool              `json:"amd"`
	Webhook         string            `json:"webhook,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func (b *BlandClient) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	// max_duration is in minutes
	minutes := int(math.Ceil(float64(req.MaxDurationSeconds) / 60))
	payload := blandDialPayload{
		PhoneNumber:     req.PhoneNumber,
		Task:            req.Task,
		Model:           blandModel,
		Voice:           req.Voice,
		FirstSentence:   req.FirstSentence,
		WaitForGreeting: req.WaitForGreeting,
		Record:          req.Record,
		MaxDuration:     minutes,
		Temperature:     req.Temperature,
		Language:        req.Language,
		AMD:             true,
		Webhook:         req.WebhookURL,
		Metadata:        req.Metadata,
	}
	var out struct {
		Status string `json:"status"`
		CallID string `json:"call_id"`
	}
	if err := b.do(ctx, http.MethodPost, "/v1/calls", payload, &out); err != nil {
		return DialResult{}, err
	}
	if out.CallID == "" {
		return DialResult{}, apperr.Unavailable("call provider returned no call id", nil)
	}
	return DialResult{ExternalCallID: out.CallID, Status: out.Status}, nil
}

type blandCallDetails struct {
	CallID       string      `json:"call_id"`
	CallLength   float64     `json:"call_length"`
	AnsweredBy   string      `json:"answered_by"`
	RecordingURL string      `json:"recording_url"`
	Transcripts  []Utterance `json:"transcripts"`
	RequestData  struct {
		Voice string `json:"voice"`
	} `json:"request_data"`
}

func (b *BlandClient) CallDetails(ctx context.Context, externalCallID string) (CallDetails, error) {
	var d blandCallDetails
	if err := b.do(ctx, http.MethodGet, "/v1/calls/"+url.PathEscape(externalCallID), nil, &d); err != nil {
		return CallDetails{}, err
	}
	voice := d.RequestData.Voice
	if voice == "" {
		voice = "nat"
	}
	return CallDetails{
		ExternalCallID:  externalCallID,
		DurationSeconds: int(math.Round(d.CallLength)),
		AnsweredBy:      d.AnsweredBy,
		RecordingURL:    d.RecordingURL,
		Voice:           voice,
		Transcript:      d.Transcripts,
	}, nil
}

func (b *BlandClient) do(ctx context.Context, method, path string, body, out any) error {
	if b.apiKey == "" {
		return apperr.Unavailable("call provider is not configured", nil)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bland: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("bland: build request: %w", err)
	}
	req.Header.Set("authorization", b.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return apperr.Unavailable("call provider unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return apperr.Unavailable("call provider response unreadable", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Unavailable("call provider request failed",
			fmt.Errorf("bland: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data))))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Unavailable("call provider response invalid", err)
	}
	return nil
}
