package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, pw := range []string{"pw123456", "", "ünïcødé pass", strings.Repeat("x", MaxPasswordBytes)} {
		digest, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("hash %q: %v", pw, err)
		}
		if digest == pw {
			t.Fatalf("digest must not equal password")
		}
		if !h.Verify(pw, digest) {
			t.Fatalf("expected verify(%q) to succeed", pw)
		}
		if h.Verify(pw+"!", digest) {
			t.Fatalf("expected verify with other password to fail")
		}
	}
}

func TestHasherSaltsDigests(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash("pw123456")
	b, _ := h.Hash("pw123456")
	if a == b {
		t.Fatalf("expected distinct salted digests")
	}
}

func TestHasherRejectsOverlongPasswords(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", MaxPasswordBytes+1)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if h.Verify("pw", "") {
		t.Fatalf("expected empty digest to fail")
	}
}
