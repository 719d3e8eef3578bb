package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"callcenter-platform/internal/accounts"
	"callcenter-platform/internal/aiconfig"
	"callcenter-platform/internal/analytics"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/campaigns"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/leads"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/pricing"
	"callcenter-platform/internal/telephony"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type stubProvider struct{ next string }

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Dial(context.Context, telephony.DialRequest) (telephony.DialResult, error) {
	return telephony.DialResult{ExternalCallID: s.next, Status: "success"}, nil
}

func (s *stubProvider) CallDetails(_ context.Context, id string) (telephony.CallDetails, error) {
	return telephony.CallDetails{
		ExternalCallID:  id,
		DurationSeconds: 60,
		AnsweredBy:      "human",
		Voice:           "nat",
		Transcript: []telephony.Utterance{
			{Speaker: "assistant", Text: "Hello"},
			{Speaker: telephony.SpeakerLead, Text: "Not interested, remove me please"},
		},
	}, nil
}

type testAPI struct {
	t        *testing.T
	r        *gin.Engine
	accounts *accounts.Service
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager(config.AuthConfig{SecretKey: "test-secret", AccessTokenExpireMinutes: 15, RefreshTokenExpireDays: 7})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}
	auditSvc := audit.NewService(audit.NewMemoryRepo())
	accountsSvc := accounts.NewService(accounts.NewMemoryRepo(), auth.NewHasher(bcrypt.MinCost), tokens, auth.NewMemoryRevoker(), auditSvc)
	leadsSvc := leads.NewService(leads.NewMemoryRepo(), auditSvc)
	campaignsSvc := campaigns.NewService(campaigns.NewMemoryRepo(), leadsSvc, auditSvc)
	callsSvc := calls.NewService(calls.NewMemoryRepo(), leadsSvc, campaignsSvc, auditSvc)
	campaignsSvc.SetCallCounter(callsSvc)
	aiSvc := aiconfig.NewService(aiconfig.NewMemoryRepo(), auditSvc)
	provider := &stubProvider{next: "ext-1"}

	r := newRouter(routeDeps{
		Log:    logger.NewWithWriter(io.Discard, "local", "test"),
		Tokens: tokens,
		Handlers: httpapi.Handlers{
			Accounts:      accountsSvc,
			Leads:         leadsSvc,
			Campaigns:     campaignsSvc,
			Calls:         callsSvc,
			Dialer:        telephony.NewDialer(provider, leadsSvc, campaignsSvc, aiSvc, callsSvc, "https://api.example.com/api/calls/webhook/bland"),
			AIConfig:      aiSvc,
			Analytics:     analytics.NewService(analytics.NewMemoryRepo()),
			MaxUploadSize: 1 << 20,
		},
		Platform: httpapi.Platform{Version: "test"},
		Webhook: telephony.WebhookHandler{
			Provider: provider,
			Calls:    callsSvc,
			Pricing:  pricing.NewService(pricing.DefaultRateCard()),
		},
		Metrics:        metrics.New(),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return testAPI{t: t, r: r, accounts: accountsSvc}
}

func (a testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func (a testAPI) expect(w *httptest.ResponseRecorder, status int, out any) {
	a.t.Helper()
	if w.Code != status {
		a.t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("decode %s: %v", w.Body.String(), err)
		}
	}
}

func (a testAPI) register(email string) auth.TokenPair {
	a.t.Helper()
	var pair auth.TokenPair
	a.expect(a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "pw123456", "full_name": "Test User",
	}), http.StatusCreated, &pair)
	return pair
}

func TestTenantIsolationEndToEnd(t *testing.T) {
	api := newTestAPI(t)

	x := api.register("a@b.com")
	if x.AccessToken == "" || x.RefreshToken == "" || x.TokenType != "bearer" {
		t.Fatalf("unexpected register tokens %+v", x)
	}

	var login auth.TokenPair
	api.expect(api.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@b.com", "password": "pw123456",
	}), http.StatusOK, &login)
	if login.AccessToken == "" || login.RefreshToken == "" {
		t.Fatalf("login returned no tokens")
	}

	var lead leads.Lead
	api.expect(api.do(http.MethodPost, "/api/leads", login.AccessToken, map[string]string{
		"name": "Jane", "phone": "+15550100101",
	}), http.StatusCreated, &lead)
	if lead.FirstName != "Jane" || lead.Status != leads.StatusNew {
		t.Fatalf("unexpected lead %+v", lead)
	}

	y := api.register("c@d.com")
	var list struct {
		Total int          `json:"total"`
		Items []leads.Lead `json:"items"`
	}
	api.expect(api.do(http.MethodGet, "/api/leads", y.AccessToken, nil), http.StatusOK, &list)
	if list.Total != 0 || len(list.Items) != 0 {
		t.Fatalf("tenant Y sees tenant X leads: %+v", list)
	}
	api.expect(api.do(http.MethodGet, "/api/leads/"+lead.ID, y.AccessToken, nil), http.StatusNotFound, nil)
	api.expect(api.do(http.MethodDelete, "/api/leads/"+lead.ID, y.AccessToken, nil), http.StatusNotFound, nil)

	api.expect(api.do(http.MethodGet, "/api/leads", x.AccessToken, nil), http.StatusOK, &list)
	if list.Total != 1 {
		t.Fatalf("tenant X should see its lead, got %+v", list)
	}
}

func TestAuthErrors(t *testing.T) {
	api := newTestAPI(t)
	pair := api.register("a@b.com")

	api.expect(api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "A@B.com", "password": "pw123456", "full_name": "Again",
	}), http.StatusConflict, nil)
	api.expect(api.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@b.com", "password": "wrong-password",
	}), http.StatusUnauthorized, nil)
	api.expect(api.do(http.MethodGet, "/api/leads", "", nil), http.StatusUnauthorized, nil)

	// token types are not interchangeable
	api.expect(api.do(http.MethodGet, "/api/leads", pair.RefreshToken, nil), http.StatusUnauthorized, nil)
	api.expect(api.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": pair.AccessToken,
	}), http.StatusUnauthorized, nil)

	var refreshed auth.TokenPair
	api.expect(api.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	}), http.StatusOK, &refreshed)
	if refreshed.RefreshToken != pair.RefreshToken || refreshed.AccessToken == "" {
		t.Fatalf("unexpected refresh result %+v", refreshed)
	}

	var me map[string]any
	api.expect(api.do(http.MethodGet, "/api/auth/me", refreshed.AccessToken, nil), http.StatusOK, &me)
	if me["email"] != "a@b.com" || me["role"] != "owner" {
		t.Fatalf("unexpected me %v", me)
	}

	api.expect(api.do(http.MethodPost, "/api/auth/logout", pair.AccessToken, map[string]string{
		"refresh_token": pair.RefreshToken,
	}), http.StatusOK, nil)
	api.expect(api.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	}), http.StatusUnauthorized, nil)
}

func TestDisabledUserTokenIsForbidden(t *testing.T) {
	api := newTestAPI(t)
	pair := api.register("a@b.com")
	api.expect(api.do(http.MethodGet, "/api/leads", pair.AccessToken, nil), http.StatusOK, nil)

	if _, err := api.accounts.SetActive(context.Background(), "a@b.com", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	api.expect(api.do(http.MethodGet, "/api/leads", pair.AccessToken, nil), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPost, "/api/leads", pair.AccessToken, map[string]string{"name": "Jane", "phone": "+15550100101"}), http.StatusForbidden, nil)

	if _, err := api.accounts.SetActive(context.Background(), "a@b.com", true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	api.expect(api.do(http.MethodGet, "/api/leads", pair.AccessToken, nil), http.StatusOK, nil)
}

func TestValidationErrorBody(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "nope", "password": "pw123456", "full_name": "X"})
	var body struct {
		Error struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		} `json:"error"`
	}
	api.expect(w, http.StatusBadRequest, &body)
	if body.Error.Code != "validation" || body.Error.Field != "email" {
		t.Fatalf("unexpected error body %s", w.Body.String())
	}
}

func TestCampaignLifecycle(t *testing.T) {
	api := newTestAPI(t)
	tok := api.register("a@b.com").AccessToken

	var lead leads.Lead
	api.expect(api.do(http.MethodPost, "/api/leads", tok, map[string]string{"name": "Jane Doe", "phone": "+15550100101"}), http.StatusCreated, &lead)

	var cp campaigns.Campaign
	api.expect(api.do(http.MethodPost, "/api/campaigns", tok, map[string]any{
		"name": "Spring", "lead_ids": []string{lead.ID},
	}), http.StatusCreated, &cp)
	if cp.Status != campaigns.StatusDraft {
		t.Fatalf("expected draft, got %s", cp.Status)
	}

	status := func(s string, want int) {
		t.Helper()
		api.expect(api.do(http.MethodPatch, "/api/campaigns/"+cp.ID+"/status", tok, map[string]string{"status": s}), want, nil)
	}
	status("completed", http.StatusBadRequest)
	status("active", http.StatusOK)
	status("completed", http.StatusOK)
	status("completed", http.StatusBadRequest)

	var stats campaigns.Stats
	api.expect(api.do(http.MethodGet, "/api/campaigns/"+cp.ID+"/stats", tok, nil), http.StatusOK, &stats)
	if stats.TotalLeads != 1 || stats.Called != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	api.expect(api.do(http.MethodDelete, "/api/campaigns/"+cp.ID+"/leads/"+lead.ID, tok, nil), http.StatusNoContent, nil)
	api.expect(api.do(http.MethodDelete, "/api/campaigns/"+cp.ID, tok, nil), http.StatusNoContent, nil)
	api.expect(api.do(http.MethodGet, "/api/campaigns/"+cp.ID, tok, nil), http.StatusNotFound, nil)
}

func TestCallLifecycle(t *testing.T) {
	api := newTestAPI(t)
	tok := api.register("a@b.com").AccessToken

	var lead leads.Lead
	api.expect(api.do(http.MethodPost, "/api/leads", tok, map[string]string{"name": "Jane", "phone": "+15550100101"}), http.StatusCreated, &lead)

	var call calls.Call
	api.expect(api.do(http.MethodPost, "/api/calls", tok, map[string]string{"lead_id": lead.ID}), http.StatusCreated, &call)
	if call.Status != calls.StatusQueued {
		t.Fatalf("expected queued, got %s", call.Status)
	}

	path := "/api/calls/" + call.ID
	api.expect(api.do(http.MethodPatch, path+"/status", tok, map[string]string{"status": "active"}), http.StatusOK, nil)
	api.expect(api.do(http.MethodPatch, path+"/status", tok, map[string]any{"status": "completed", "outcome": "callback", "duration_seconds": 42}), http.StatusOK, nil)
	api.expect(api.do(http.MethodPatch, path+"/status", tok, map[string]string{"status": "active"}), http.StatusBadRequest, nil)

	api.expect(api.do(http.MethodPatch, path+"/metadata", tok, map[string]string{"transcript": "user: call me later", "sentiment": "neutral"}), http.StatusOK, &call)
	if call.Status != calls.StatusCompleted || call.Transcript == "" || call.DurationSeconds != 42 {
		t.Fatalf("unexpected call %+v", call)
	}

	var page struct {
		Total int `json:"total"`
	}
	api.expect(api.do(http.MethodGet, "/api/leads/"+lead.ID+"/calls", tok, nil), http.StatusOK, &page)
	if page.Total != 1 {
		t.Fatalf("expected one call for lead, got %d", page.Total)
	}

	var stats calls.Stats
	api.expect(api.do(http.MethodGet, "/api/calls/stats?date_range=30d", tok, nil), http.StatusOK, &stats)
	if stats.TotalCalls != 1 || stats.Completed != 1 || stats.AnswerRate != 100 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	api.expect(api.do(http.MethodGet, "/api/calls/stats?date_range=1y", tok, nil), http.StatusBadRequest, nil)
}

func TestInitiateAndWebhook(t *testing.T) {
	api := newTestAPI(t)
	tok := api.register("a@b.com").AccessToken

	var lead leads.Lead
	api.expect(api.do(http.MethodPost, "/api/leads", tok, map[string]string{"name": "Jane", "phone": "+15550100101"}), http.StatusCreated, &lead)

	var res telephony.InitiateResult
	api.expect(api.do(http.MethodPost, "/api/calls/initiate", tok, map[string]string{"lead_id": lead.ID}), http.StatusOK, &res)
	if res.ExternalCallID != "ext-1" {
		t.Fatalf("unexpected initiate result %+v", res)
	}

	var me struct {
		TenantID string `json:"tenant_id"`
	}
	api.expect(api.do(http.MethodGet, "/api/auth/me", tok, nil), http.StatusOK, &me)

	hook := func(event string) {
		t.Helper()
		api.expect(api.do(http.MethodPost, "/api/calls/webhook/bland", "", map[string]any{
			"event": event, "call_id": "ext-1", "metadata": map[string]string{"tenant_id": me.TenantID},
		}), http.StatusOK, nil)
	}
	hook("call.started")
	hook("call.completed")

	var call calls.Call
	api.expect(api.do(http.MethodGet, "/api/calls/"+res.CallID, tok, nil), http.StatusOK, &call)
	if call.Status != calls.StatusCompleted || call.Outcome != calls.OutcomeNotInterested || call.CostMinor != 9 {
		t.Fatalf("unexpected call after webhook %+v", call)
	}
}

func TestImportAndExportCSV(t *testing.T) {
	api := newTestAPI(t)
	tok := api.register("a@b.com").AccessToken

	csvBody := "first_name,last_name,email,phone\nAnn,Lee,ann@example.com,+15550100101\nBad,Row,bad@example.com,not-a-phone\nBob,Ray,bob@example.com,+15550100102\n"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte(csvBody))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/leads/import/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	api.r.ServeHTTP(w, req)

	var report leads.ImportReport
	api.expect(w, http.StatusOK, &report)
	if report.Imported != 2 || report.Failed != 1 || report.Errors[0].Row != 3 {
		t.Fatalf("unexpected report %+v", report)
	}

	w = api.do(http.MethodGet, "/api/leads/export/csv", tok, nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected export response %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n"); len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %q", w.Body.String())
	}

	api.expect(api.do(http.MethodGet, "/api/leads/export/csv?archive=true", tok, nil), http.StatusServiceUnavailable, nil)
}

func TestAIConfigRoutes(t *testing.T) {
	api := newTestAPI(t)
	tok := api.register("a@b.com").AccessToken

	var cfg aiconfig.Config
	api.expect(api.do(http.MethodGet, "/api/ai-config", tok, nil), http.StatusOK, &cfg)
	if cfg.Voice != "nat" || cfg.MaxDurationSeconds != 300 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	api.expect(api.do(http.MethodPost, "/api/ai-config", tok, map[string]any{}), http.StatusConflict, nil)
	api.expect(api.do(http.MethodPatch, "/api/ai-config", tok, map[string]any{"voice": "june", "temperature": 0.2}), http.StatusOK, &cfg)
	if cfg.Voice != "june" || cfg.Temperature != 0.2 || cfg.Tone != "professional" {
		t.Fatalf("unexpected patched config %+v", cfg)
	}
	api.expect(api.do(http.MethodPatch, "/api/ai-config", tok, map[string]any{"max_duration_seconds": 5}), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodDelete, "/api/ai-config", tok, nil), http.StatusOK, &cfg)
	if cfg.Voice != "nat" {
		t.Fatalf("expected reset to defaults, got %+v", cfg)
	}
}

func TestPlatformRoutes(t *testing.T) {
	api := newTestAPI(t)
	api.expect(api.do(http.MethodGet, "/health", "", nil), http.StatusOK, nil)
	api.expect(api.do(http.MethodGet, "/health/ready", "", nil), http.StatusOK, nil)
	api.expect(api.do(http.MethodGet, "/", "", nil), http.StatusOK, nil)

	w := api.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "callcenter_http_requests_total") {
		t.Fatalf("metrics endpoint missing request counter")
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	api.r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected CORS allow origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
