package leads

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
)

type fakeArchive struct {
	puts map[string][]byte
}

func (f *fakeArchive) Put(_ context.Context, tenantID, kind, filename, _ string, body []byte) (string, error) {
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	key := tenantID + "/" + kind + "/" + filename
	f.puts[key] = body
	return key, nil
}

func (f *fakeArchive) PresignGet(_ context.Context, key string) (string, error) {
	return "https://files.example.com/" + key, nil
}

type denyLimiter struct{}

func (denyLimiter) Acquire(context.Context, string) (func(), error) {
	return nil, apperr.RateLimited("too many concurrent imports")
}

func TestImportCSV_MalformedRowIsReportedNotFatal(t *testing.T) {
	svc, repo, auditRepo := newService()
	sc := scopeOf(t, tenantX)
	data := strings.Join([]string{
		"first_name,last_name,email,phone,company",
		"Ann,Lee,ann@example.com,+15550100101,Acme",
		"Bob,Ray,bob@example.com,+15550100102,Acme",
		"Cid,Roe,cid@example.com,,Acme",
		"Dee,Fox,dee@example.com,+15550100104,Acme",
	}, "\n")

	report, err := svc.ImportCSV(context.Background(), sc, "leads.csv", []byte(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Imported != 3 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Errors[0].Row != 4 || !strings.Contains(report.Errors[0].Error, "phone") {
		t.Fatalf("unexpected row error %+v", report.Errors[0])
	}

	_, total, _ := repo.List(context.Background(), sc, Filter{})
	if total != 3 {
		t.Fatalf("expected 3 stored leads, got %d", total)
	}
	evs := auditRepo.Events()
	if len(evs) != 1 || evs[0].Action != audit.ActionLeadImport {
		t.Fatalf("expected import audit event, got %+v", evs)
	}
}

func TestImportCSV_DefaultsAndAliases(t *testing.T) {
	svc, repo, _ := newService()
	sc := scopeOf(t, tenantX)
	data := "\ufeffName,Phone,Status\nJane Doe,+15550100101,qualified\n"

	report, err := svc.ImportCSV(context.Background(), sc, "LEADS.CSV", []byte(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Imported != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	items, _, _ := repo.List(context.Background(), sc, Filter{})
	l := items[0]
	if l.FirstName != "Jane" || l.LastName != "Doe" || l.Status != StatusQualified || l.Source != "csv_import" {
		t.Fatalf("unexpected lead %+v", l)
	}
}

func TestImportCSV_RejectsBadFiles(t *testing.T) {
	svc, _, _ := newService()
	sc := scopeOf(t, tenantX)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, sc, "leads.xlsx", []byte("phone\n1")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation for extension, got %v", err)
	}
	if _, err := svc.ImportCSV(ctx, sc, "leads.csv", []byte("first_name,email\nA,a@b.com")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation for missing phone column, got %v", err)
	}
	if _, err := svc.ImportCSV(ctx, sc, "leads.csv", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation for empty file, got %v", err)
	}
}

func TestImportCSV_RespectsLimiter(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, WithImportLimiter(denyLimiter{}))
	_, err := svc.ImportCSV(context.Background(), scopeOf(t, tenantX), "leads.csv", []byte("phone\n+15550100101"))
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestImportCSV_ArchivesOriginal(t *testing.T) {
	arch := &fakeArchive{}
	svc := NewService(NewMemoryRepo(), nil, WithArchiver(arch))
	report, err := svc.ImportCSV(context.Background(), scopeOf(t, tenantX), "leads.csv", []byte("phone\n+15550100101"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.ArchiveKey != tenantX+"/imports/leads.csv" {
		t.Fatalf("unexpected archive key %q", report.ArchiveKey)
	}
}

func TestExportCSV(t *testing.T) {
	arch := &fakeArchive{}
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, WithArchiver(arch))
	ctx := context.Background()
	x, y := scopeOf(t, tenantX), scopeOf(t, tenantY)

	_, _ = svc.Create(ctx, x, Input{Name: ptr("Ann Lee"), Phone: ptr("+15550100101")})
	_, _ = svc.Create(ctx, x, Input{Name: ptr("Bob Ray"), Phone: ptr("+15550100102"), Status: ptr("lost")})
	_, _ = svc.Create(ctx, y, Input{Name: ptr("Eve Other"), Phone: ptr("+15550100103")})

	out, err := svc.ExportCSV(ctx, x, StatusNew, true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(out.Body))).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(records) != 2 || records[0][3] != "phone" || records[1][0] != "Ann" {
		t.Fatalf("unexpected export %v", records)
	}
	if !strings.HasPrefix(out.ArchiveURL, "https://files.example.com/"+tenantX+"/exports/") {
		t.Fatalf("unexpected archive url %q", out.ArchiveURL)
	}
}

func TestExportCSV_ArchiveRequiresStorage(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.ExportCSV(context.Background(), scopeOf(t, tenantX), "", true)
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
