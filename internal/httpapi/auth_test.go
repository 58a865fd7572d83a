package httpapi

import (
	"testing"
	"time"

	"warungpos/backend/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager("test-secret-key-test-secret-key!", time.Hour)

	user := domain.User{
		ID:       "user-1",
		Username: "kasir",
		Role:     domain.RoleCashier,
	}
	token, expiresAt, err := auth.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	if time.Until(expiresAt) < 55*time.Minute {
		t.Fatalf("expiry too soon: %v", expiresAt)
	}

	actor, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.UserID != "user-1" || actor.Username != "kasir" || actor.Role != domain.RoleCashier {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signer := NewAuthManager("secret-one-secret-one-secret-one", time.Hour)
	verifier := NewAuthManager("secret-two-secret-two-secret-two", time.Hour)

	token, _, err := signer.IssueToken(domain.User{ID: "user-1", Username: "kasir", Role: "cashier"})
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}

	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthManager("test-secret-key-test-secret-key!", time.Hour)

	for _, token := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		if _, err := auth.ParseToken(token); err == nil {
			t.Fatalf("expected %q to be rejected", token)
		}
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	auth := NewAuthManager("test-secret-key-test-secret-key!", time.Hour)

	token, _, err := auth.IssueToken(domain.User{ID: "user-1", Username: "kasir", Role: "cashier"})
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}

	tampered := token[:len(token)-4] + "AAAA"
	if tampered == token {
		tampered = token[:len(token)-4] + "BBBB"
	}
	if _, err := auth.ParseToken(tampered); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}
