package accounts

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/logger"

	"github.com/google/uuid"
)

const minPasswordLength = 8

var errBadCredentials = apperr.Unauthorized("incorrect email or password")

// Service implements registration, login and token refresh.
type Service struct {
	repo    Repository
	hasher  *auth.Hasher
	tokens  *auth.Manager
	revoker auth.Revoker
	audit   *audit.Service
	now     func() time.Time
}

func NewService(repo Repository, hasher *auth.Hasher, tokens *auth.Manager, revoker auth.Revoker, auditSvc *audit.Service) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		audit:   auditSvc,
		now:     time.Now,
	}
}

// Register creates a tenant and its owner in one unit of work and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (auth.TokenPair, User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return auth.TokenPair{}, User{}, err
	}
	if len(in.Password) < minPasswordLength {
		return auth.TokenPair{}, User{}, apperr.Validation("password", "password must be at least %d characters", minPasswordLength)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return auth.TokenPair{}, User{}, apperr.Validation("full_name", "full_name is required")
	}

	digest, err := s.hasher.Hash(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return auth.TokenPair{}, User{}, apperr.Validation("password", "password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	if err != nil {
		return auth.TokenPair{}, User{}, err
	}

	tenant := Tenant{ID: uuid.NewString(), Name: fullName + "'s Organization", Plan: DefaultPlan}
	user, err := s.repo.CreateTenantWithOwner(ctx, tenant, User{
		Email:          email,
		HashedPassword: digest,
		FullName:       fullName,
		Role:           rbac.RoleOwner,
		IsActive:       true,
	})
	if errors.Is(err, apperr.ErrConflict) {
		return auth.TokenPair{}, User{}, apperr.Conflict("email already registered")
	}
	if err != nil {
		return auth.TokenPair{}, User{}, err
	}

	pair, err := s.tokens.IssuePair(s.now(), identityOf(user))
	if err != nil {
		return auth.TokenPair{}, User{}, err
	}
	s.record(ctx, user, audit.ActionUserRegistered)
	return pair, user, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	user, err := s.repo.UserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return auth.TokenPair{}, errBadCredentials
	}
	if err != nil {
		return auth.TokenPair{}, err
	}
	if !s.hasher.Verify(password, user.HashedPassword) {
		return auth.TokenPair{}, errBadCredentials
	}
	if !user.IsActive {
		return auth.TokenPair{}, apperr.Forbidden("inactive user")
	}

	pair, err := s.tokens.IssuePair(s.now(), identityOf(user))
	if err != nil {
		return auth.TokenPair{}, err
	}
	s.record(ctx, user, audit.ActionUserLogin)
	return pair, nil
}

// Refresh mints a new access token. The refresh token itself is returned
// unchanged; the role is reloaded so demotions apply on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	now := s.now()
	claims, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh, now)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return auth.TokenPair{}, apperr.Unavailable("token revocation check failed", err)
		}
		if revoked {
			return auth.TokenPair{}, auth.ErrInvalidToken
		}
	}

	scope, err := store.NewScope(claims.TenantID, claims.UserID)
	if err != nil {
		return auth.TokenPair{}, auth.ErrInvalidToken
	}
	user, err := s.repo.UserByID(ctx, scope, claims.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return auth.TokenPair{}, auth.ErrInvalidToken
	}
	if err != nil {
		return auth.TokenPair{}, err
	}
	if !user.IsActive {
		return auth.TokenPair{}, apperr.Forbidden("inactive user")
	}

	access, err := s.tokens.IssueAccess(now, identityOf(user))
	if err != nil {
		return auth.TokenPair{}, err
	}
	return auth.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh token until it would have expired anyway.
// An empty token is accepted: access tokens simply age out.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" || s.revoker == nil {
		return nil
	}
	claims, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh, s.now())
	if err != nil {
		return err
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Unavailable("token revocation failed", err)
	}
	return nil
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, sc store.Scope) (User, error) {
	user, err := s.repo.UserByID(ctx, sc, sc.UserID())
	if err != nil {
		return User{}, err
	}
	if !user.IsActive {
		return User{}, apperr.Forbidden("inactive user")
	}
	return user, nil
}

// Active reports whether the token's user may still act. A user deleted
// after the token was issued is Unauthorized; a disabled one is Forbidden.
func (s *Service) Active(ctx context.Context, sc store.Scope) error {
	_, err := s.Me(ctx, sc)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Unauthorized("user no longer exists")
	}
	return err
}

// SetActive soft-disables or re-enables a user by email. Operator only.
func (s *Service) SetActive(ctx context.Context, email string, active bool) (User, error) {
	user, err := s.repo.SetActive(ctx, email, active)
	if err != nil {
		return User{}, err
	}
	action := audit.ActionUserEnabled
	if !active {
		action = audit.ActionUserDisabled
	}
	s.record(ctx, user, action)
	return user, nil
}

func (s *Service) record(ctx context.Context, u User, action audit.Action) {
	sc, err := store.NewScope(u.TenantID, u.ID)
	if err != nil {
		logger.From(ctx).Warn("audit skipped: invalid tenant", "user_id", u.ID)
		return
	}
	s.audit.Record(ctx, sc, action, "user", u.ID, nil)
}

func identityOf(u User) auth.Identity {
	return auth.Identity{UserID: u.ID, TenantID: u.TenantID, Email: u.Email, Role: u.Role}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("email", "invalid email address")
	}
	return email, nil
}
