package leads

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/logger"
)

var exportHeader = []string{"first_name", "last_name", "email", "phone", "company", "source", "status", "created_at"}

// RowError reports one rejected CSV row. Rows are numbered as in a
// spreadsheet: the header is row 1.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportReport struct {
	Imported   int        `json:"imported"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors"`
	ArchiveKey string     `json:"archive_key,omitempty"`
}

// ImportCSV creates one lead per valid row. Malformed rows are reported and
// skipped; they never fail the batch.
func (s *Service) ImportCSV(ctx context.Context, sc store.Scope, filename string, data []byte) (ImportReport, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return ImportReport{}, apperr.Validation("file", "only CSV files are allowed")
	}
	if s.limiter != nil {
		release, err := s.limiter.Acquire(ctx, sc.TenantID())
		if err != nil {
			return ImportReport{}, err
		}
		defer release()
	}

	valid, report, err := parseImport(data)
	if err != nil {
		return ImportReport{}, err
	}
	if len(valid) > 0 {
		if _, err := s.repo.CreateMany(ctx, sc, valid); err != nil {
			return ImportReport{}, err
		}
	}
	report.Imported = len(valid)
	report.Failed = len(report.Errors)

	if s.archive != nil {
		key, err := s.archive.Put(ctx, sc.TenantID(), "imports", filename, "text/csv", data)
		if err != nil {
			logger.From(ctx).Warn("lead import archive failed", "err", err)
		} else {
			report.ArchiveKey = key
		}
	}

	s.audit.Record(ctx, sc, audit.ActionLeadImport, "lead", "", map[string]any{
		"file":     filename,
		"imported": report.Imported,
		"failed":   report.Failed,
	})
	return report, nil
}

func parseImport(data []byte) ([]Lead, ImportReport, error) {
	report := ImportReport{Errors: []RowError{}}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, apperr.Validation("file", "CSV file is empty")
	}
	if err != nil {
		return nil, report, apperr.Validation("file", "invalid CSV header: %v", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["phone"]; !ok {
		return nil, report, apperr.Validation("file", "CSV header must include a phone column")
	}

	var valid []Lead
	for row := 2; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: row, Error: err.Error()})
			continue
		}
		l, err := apply(Lead{Status: StatusNew}, rowInput(idx, rec))
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: row, Error: rowMessage(err)})
			continue
		}
		valid = append(valid, l)
	}
	return valid, report, nil
}

func rowInput(idx map[string]int, rec []string) Input {
	field := func(name string) *string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return nil
		}
		v := strings.TrimSpace(rec[i])
		return &v
	}
	in := Input{
		FirstName: field("first_name"),
		LastName:  field("last_name"),
		Email:     field("email"),
		Phone:     field("phone"),
		Company:   field("company"),
		Source:    field("source"),
		Status:    field("status"),
		Notes:     field("notes"),
	}
	if in.FirstName == nil && in.LastName == nil {
		in.Name = field("name")
	}
	if in.Source == nil {
		src := "csv_import"
		in.Source = &src
	}
	return in
}

func rowMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// ExportResult is a rendered CSV export.
type ExportResult struct {
	Body       []byte
	ArchiveURL string
}

const exportBatch = store.MaxPageSize

// ExportCSV renders every lead of the tenant, optionally filtered by status,
// in creation order. With archive set the file is also stored and a
// presigned download URL returned.
func (s *Service) ExportCSV(ctx context.Context, sc store.Scope, status Status, archive bool) (ExportResult, error) {
	if archive && s.archive == nil {
		return ExportResult{}, apperr.Unavailable("archive storage is not configured", nil)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return ExportResult{}, err
	}
	for page := 1; ; page++ {
		items, _, err := s.repo.List(ctx, sc, Filter{Status: status, Page: store.Page{Number: page, Size: exportBatch}})
		if err != nil {
			return ExportResult{}, err
		}
		for _, l := range items {
			if err := w.Write([]string{
				l.FirstName, l.LastName, l.Email, l.Phone, l.Company, l.Source,
				string(l.Status), l.CreatedAt.UTC().Format(time.RFC3339),
			}); err != nil {
				return ExportResult{}, err
			}
		}
		if len(items) < exportBatch {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ExportResult{}, err
	}

	out := ExportResult{Body: buf.Bytes()}
	if archive {
		name := "leads-" + time.Now().UTC().Format("20060102T150405Z") + ".csv"
		key, err := s.archive.Put(ctx, sc.TenantID(), "exports", name, "text/csv", out.Body)
		if err != nil {
			return ExportResult{}, apperr.Unavailable("archive upload failed", err)
		}
		url, err := s.archive.PresignGet(ctx, key)
		if err != nil {
			return ExportResult{}, apperr.Unavailable("archive presign failed", err)
		}
		out.ArchiveURL = url
	}
	return out, nil
}
