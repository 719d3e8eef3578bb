package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/store"
)

const (
	tenantX = "9b2f0c9e-4f64-4c55-9a63-7a8f8d1c2b01"
	tenantY = "3c1d7e52-0a3e-4d9b-8f0e-2b6a5c4d3e02"
)

var now = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC) // a Wednesday

func scopeOf(t *testing.T, tenant string) store.Scope {
	t.Helper()
	s, err := store.NewScope(tenant, "user-1")
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	return s
}

func row(id string, daysAgo int, status calls.Status, outcome calls.Outcome, seconds int, cost int64) CallRow {
	return CallRow{
		ID:              id,
		TenantID:        tenantX,
		CampaignID:      "camp-1",
		Status:          status,
		Outcome:         outcome,
		DurationSeconds: seconds,
		CostMinor:       cost,
		CreatedAt:       now.AddDate(0, 0, -daysAgo),
	}
}

func newService(rows ...CallRow) *Service {
	repo := NewMemoryRepo()
	repo.Calls = rows
	repo.Campaigns = []CampaignRef{
		{ID: "camp-1", TenantID: tenantX, Name: "Spring"},
		{ID: "camp-2", TenantID: tenantX, Name: "Idle"},
		{ID: "camp-9", TenantID: tenantY, Name: "Other tenant"},
	}
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func TestDashboard(t *testing.T) {
	svc := newService(
		row("c1", 1, calls.StatusCompleted, calls.OutcomeInterested, 90, 150),
		row("c2", 2, calls.StatusCompleted, calls.OutcomeNotInterested, 30, 50),
		row("c3", 3, calls.StatusFailed, "", 0, 0),
		row("c4", 4, calls.StatusCompleted, calls.OutcomeInterested, 0, 100),
		// previous window
		row("p1", 9, calls.StatusCompleted, "", 60, 0),
		row("p2", 10, calls.StatusFailed, "", 0, 0),
		// outside both
		row("o1", 20, calls.StatusCompleted, "", 60, 0),
	)
	d, err := svc.Dashboard(context.Background(), scopeOf(t, tenantX), "7d")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	want := Dashboard{
		DateRange:        "7d",
		TotalCalls:       4,
		AnswerRate:       75,
		InterestedLeads:  2,
		AvgDuration:      "0:40",
		CostPerLead:      1.5,
		TotalCallsChange: 100,
		AnswerRateChange: 25,
	}
	if d != want {
		t.Fatalf("dashboard = %+v, want %+v", d, want)
	}
}

func TestDashboard_EmptyAndInvalidRange(t *testing.T) {
	svc := newService()
	d, err := svc.Dashboard(context.Background(), scopeOf(t, tenantX), "30d")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalCalls != 0 || d.AvgDuration != "0:00" || d.CostPerLead != 0 {
		t.Fatalf("unexpected empty dashboard %+v", d)
	}
	if _, err := svc.Dashboard(context.Background(), scopeOf(t, tenantX), "1y"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCallsOverTime(t *testing.T) {
	svc := newService(
		row("c1", 0, calls.StatusCompleted, calls.OutcomeInterested, 60, 0),
		row("c2", 0, calls.StatusFailed, "", 0, 0),
		row("c3", 6, calls.StatusCompleted, "", 60, 0),
		row("c4", 7, calls.StatusCompleted, "", 60, 0),
	)
	buckets, err := svc.CallsOverTime(context.Background(), scopeOf(t, tenantX), "7d")
	if err != nil {
		t.Fatalf("calls over time: %v", err)
	}
	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}
	first, last := buckets[0], buckets[6]
	if first.Date != "2026-06-04" || first.Label != "Thu" || first.Calls != 1 {
		t.Fatalf("unexpected first bucket %+v", first)
	}
	if last.Date != "2026-06-10" || last.Label != "Wed" || last.Calls != 2 || last.Answered != 1 || last.Interested != 1 {
		t.Fatalf("unexpected last bucket %+v", last)
	}
}

func TestOutcomes(t *testing.T) {
	svc := newService(
		row("c1", 1, calls.StatusCompleted, calls.OutcomeInterested, 60, 0),
		row("c2", 1, calls.StatusCompleted, calls.OutcomeInterested, 60, 0),
		row("c3", 1, calls.StatusCompleted, calls.OutcomeVoicemail, 60, 0),
		row("c4", 1, calls.StatusCompleted, "", 60, 0),
		row("c5", 1, calls.StatusFailed, calls.OutcomeNoAnswer, 0, 0),
	)
	out, err := svc.Outcomes(context.Background(), scopeOf(t, tenantX), "")
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 outcomes, got %+v", out)
	}
	if out[0].Outcome != calls.OutcomeInterested || out[0].Count != 2 || out[0].Percentage != 50 {
		t.Fatalf("unexpected first share %+v", out[0])
	}
	if out[1].Outcome != calls.OutcomeVoicemail || out[1].Percentage != 25 {
		t.Fatalf("unexpected second share %+v", out[1])
	}
}

func TestCampaignsPerformance(t *testing.T) {
	svc := newService(
		row("c1", 40, calls.StatusCompleted, calls.OutcomeInterested, 60, 234),
		row("c2", 1, calls.StatusCompleted, calls.OutcomeNotInterested, 60, 100),
		row("c3", 1, calls.StatusFailed, "", 0, 0),
	)
	out, err := svc.CampaignsPerformance(context.Background(), scopeOf(t, tenantX))
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected only the tenant's campaigns, got %+v", out)
	}
	spring := out[0]
	if spring.TotalCalls != 3 || spring.Answered != 2 || spring.Interested != 1 || spring.ConversionRate != 33.3 || spring.CostPerLead != 3.34 {
		t.Fatalf("unexpected performance %+v", spring)
	}
	if idle := out[1]; idle.TotalCalls != 0 || idle.ConversionRate != 0 {
		t.Fatalf("unexpected idle campaign %+v", idle)
	}
}

func TestTenantIsolation(t *testing.T) {
	svc := newService(row("c1", 1, calls.StatusCompleted, calls.OutcomeInterested, 60, 0))
	d, err := svc.Dashboard(context.Background(), scopeOf(t, tenantY), "7d")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalCalls != 0 {
		t.Fatalf("expected no calls for other tenant, got %d", d.TotalCalls)
	}
}
