package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRevoker(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := NewMemoryRevoker()
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if err := r.Revoke(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("expected jti-1 revoked")
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatalf("did not expect jti-2 revoked")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := r.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("expected entry to lapse with the token")
	}
}
