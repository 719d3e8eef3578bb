package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"callcenter-platform/internal/apperr"
)

func TestBlandClient_Dial(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/calls" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("authorization") != "key-123" {
			t.Errorf("missing authorization header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"success","call_id":"bl-1"}`))
	}))
	defer srv.Close()

	c := NewBlandClient(BlandConfig{APIKey: "key-123", BaseURL: srv.URL + "/"})
	res, err := c.Dial(context.Background(), DialRequest{
		PhoneNumber:        "+15550100101",
		Task:               "sell",
		Voice:              "nat",
		MaxDurationSeconds: 300,
		Temperature:        0.7,
		Language:           "en-US",
		Record:             true,
		Metadata:           map[string]string{"tenant_id": "t1"},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if res.ExternalCallID != "bl-1" || res.Status != "success" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got["phone_number"] != "+15550100101" || got["model"] != "enhanced" || got["amd"] != true {
		t.Fatalf("unexpected payload %v", got)
	}
	if got["max_duration"] != float64(5) {
		t.Fatalf("expected max_duration in minutes, got %v", got["max_duration"])
	}
	if _, ok := got["first_sentence"]; ok {
		t.Fatalf("empty first_sentence should be omitted")
	}
	if md, _ := got["metadata"].(map[string]any); md["tenant_id"] != "t1" {
		t.Fatalf("unexpected metadata %v", got["metadata"])
	}
}

func TestBlandClient_CallDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/calls/bl-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"call_id": "bl-1",
			"call_length": 61.6,
			"answered_by": "human",
			"recording_url": "https://rec.example.com/bl-1.mp3",
			"transcripts": [{"user": "assistant", "text": "Hi"}, {"user": "user", "text": "Yes, sounds good"}],
			"request_data": {"voice": "june"}
		}`))
	}))
	defer srv.Close()

	d, err := NewBlandClient(BlandConfig{APIKey: "k", BaseURL: srv.URL}).CallDetails(context.Background(), "bl-1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.DurationSeconds != 62 || d.Voice != "june" || len(d.Transcript) != 2 || d.Transcript[1].Speaker != SpeakerLead {
		t.Fatalf("unexpected details %+v", d)
	}
}

func TestBlandClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad phone"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewBlandClient(BlandConfig{APIKey: "k", BaseURL: srv.URL}).Dial(context.Background(), DialRequest{})
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}

	_, err = NewBlandClient(BlandConfig{BaseURL: srv.URL}).Dial(context.Background(), DialRequest{})
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable without api key, got %v", err)
	}
}
