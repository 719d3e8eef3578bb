package auth

import (
	"errors"
	"fmt"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for expired, malformed, badly signed or misused tokens.
var ErrInvalidToken = apperr.Unauthorized("invalid token")

type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("SECRET_KEY is required")
	}
	if cfg.AccessTTL() <= 0 || cfg.RefreshTTL() <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &Manager{
		secret:     []byte(cfg.SecretKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL(),
		refreshTTL: cfg.RefreshTTL(),
	}, nil
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

/* ===================== ISSUE TOKENS ===================== */

func (m *Manager) IssuePair(now time.Time, id Identity) (TokenPair, error) {
	access, err := m.issue(now, TokenTypeAccess, id, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	// refresh tokens DO NOT carry role; it is reloaded when minting access tokens
	refreshID := id
	refreshID.Role = ""
	refresh, err := m.issue(now, TokenTypeRefresh, refreshID, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

// IssueAccess mints a single access token, used by the refresh flow.
func (m *Manager) IssueAccess(now time.Time, id Identity) (string, error) {
	return m.issue(now, TokenTypeAccess, id, m.accessTTL)
}

/* ===================== VERIFY TOKEN ===================== */

// Verify parses and validates a token of the expected type.
// Every failure wraps ErrInvalidToken.
func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, invalid(err)
	}

	if claims.TokenType != expected {
		return Claims{}, invalid(errors.New("token_type mismatch"))
	}
	if claims.UserID == "" {
		return Claims{}, invalid(errors.New("user_id missing"))
	}
	if claims.TenantID == "" {
		return Claims{}, invalid(errors.New("tenant_id missing"))
	}
	if claims.ID == "" {
		return Claims{}, invalid(errors.New("jti missing"))
	}
	if expected == TokenTypeAccess && claims.Role == "" {
		return Claims{}, invalid(errors.New("role missing in access token"))
	}

	return claims, nil
}

/* ===================== INTERNAL ISSUE ===================== */

func (m *Manager) issue(now time.Time, tokenType TokenType, id Identity, ttl time.Duration) (string, error) {
	if id.UserID == "" || id.TenantID == "" {
		return "", errors.New("auth: user_id and tenant_id are required")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.UserID,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UserID:    id.UserID,
		TenantID:  id.TenantID,
		Email:     id.Email,
		Role:      id.Role,
		TokenType: tokenType,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

func invalid(cause error) error {
	return fmt.Errorf("%w: %v", ErrInvalidToken, cause)
}
