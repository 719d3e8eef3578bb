package leads

import (
	"context"
	"net/mail"
	"strings"
	"unicode"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/store"
)

// ImportLimiter caps concurrent imports per tenant.
type ImportLimiter interface {
	Acquire(ctx context.Context, tenantID string) (release func(), err error)
}

// Archiver stores import and export files in object storage.
type Archiver interface {
	Put(ctx context.Context, tenantID, kind, filename, contentType string, body []byte) (key string, err error)
	PresignGet(ctx context.Context, key string) (string, error)
}

type Service struct {
	repo    Repository
	audit   *audit.Service
	limiter ImportLimiter
	archive Archiver
}

type Option func(*Service)

// WithImportLimiter enables the per-tenant import concurrency cap.
func WithImportLimiter(l ImportLimiter) Option { return func(s *Service) { s.limiter = l } }

// WithArchiver enables archiving of imported and exported files.
func WithArchiver(a Archiver) Option { return func(s *Service) { s.archive = a } }

func NewService(repo Repository, auditSvc *audit.Service, opts ...Option) *Service {
	s := &Service{repo: repo, audit: auditSvc}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, sc store.Scope, id string) (Lead, error) {
	return s.repo.Get(ctx, sc, id)
}

// Exists returns NotFound unless the lead belongs to the caller's tenant.
func (s *Service) Exists(ctx context.Context, sc store.Scope, id string) error {
	_, err := s.repo.Get(ctx, sc, id)
	return err
}

func (s *Service) List(ctx context.Context, sc store.Scope, f Filter) (store.Result[Lead], error) {
	items, total, err := s.repo.List(ctx, sc, f)
	if err != nil {
		return store.Result[Lead]{}, err
	}
	return store.NewResult(items, total, f.Page), nil
}

func (s *Service) Create(ctx context.Context, sc store.Scope, in Input) (Lead, error) {
	l, err := apply(Lead{Status: StatusNew}, in)
	if err != nil {
		return Lead{}, err
	}
	return s.repo.Create(ctx, sc, l)
}

// Update merges non-nil fields of in into the stored lead.
func (s *Service) Update(ctx context.Context, sc store.Scope, id string, in Input) (Lead, error) {
	cur, err := s.repo.Get(ctx, sc, id)
	if err != nil {
		return Lead{}, err
	}
	next, err := apply(cur, in)
	if err != nil {
		return Lead{}, err
	}
	return s.repo.Update(ctx, sc, next)
}

// SetStatus moves a lead to any status in the enum.
func (s *Service) SetStatus(ctx context.Context, sc store.Scope, id, status string) (Lead, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return Lead{}, err
	}
	cur, err := s.repo.Get(ctx, sc, id)
	if err != nil {
		return Lead{}, err
	}
	cur.Status = st
	return s.repo.Update(ctx, sc, cur)
}

func (s *Service) Delete(ctx context.Context, sc store.Scope, id string) error {
	return s.repo.Delete(ctx, sc, id)
}

// ExistingIDs filters ids down to leads owned by the caller's tenant.
func (s *Service) ExistingIDs(ctx context.Context, sc store.Scope, ids []string) ([]string, error) {
	return s.repo.ExistingIDs(ctx, sc, ids)
}

// apply validates in against base and returns the merged lead.
func apply(base Lead, in Input) (Lead, error) {
	l := base
	if in.Name != nil {
		l.FirstName, l.LastName = splitName(*in.Name)
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&l.FirstName, in.FirstName)
	set(&l.LastName, in.LastName)
	set(&l.Email, in.Email)
	set(&l.Phone, in.Phone)
	set(&l.Company, in.Company)
	set(&l.Source, in.Source)
	if in.Notes != nil {
		l.Notes = *in.Notes
	}
	if in.Status != nil && *in.Status != "" {
		st, err := ParseStatus(*in.Status)
		if err != nil {
			return Lead{}, err
		}
		l.Status = st
	}
	if l.Status == "" {
		l.Status = StatusNew
	}

	if err := validatePhone(l.Phone); err != nil {
		return Lead{}, err
	}
	if l.Email != "" {
		addr, err := mail.ParseAddress(l.Email)
		if err != nil || addr.Address != l.Email {
			return Lead{}, apperr.Validation("email", "invalid email address")
		}
	}
	return l, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

const minPhoneDigits = 7

func validatePhone(phone string) error {
	if phone == "" {
		return apperr.Validation("phone", "phone number required")
	}
	digits := 0
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return apperr.Validation("phone", "invalid phone number %q", phone)
		}
	}
	if digits < minPhoneDigits || digits > 15 {
		return apperr.Validation("phone", "invalid phone number %q", phone)
	}
	return nil
}
