package auth

import (
	"context"

	"callcenter-platform/internal/apperr"
)

// Identity is the authenticated caller resolved from an access token.
type Identity struct {
	UserID   string
	TenantID string
	Email    string
	Role     string
}

type ctxKey int

const ctxIdentity ctxKey = iota

var ErrNoIdentity = apperr.Unauthorized("not authenticated")

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFrom(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	if !ok || id.UserID == "" || id.TenantID == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

func UserID(ctx context.Context) (string, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}

func TenantID(ctx context.Context) (string, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return "", err
	}
	return id.TenantID, nil
}

func Role(ctx context.Context) (string, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return "", err
	}
	if id.Role == "" {
		return "", apperr.Unauthorized("role not in context")
	}
	return id.Role, nil
}
