package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harborline/storefront-sync/pkg/config"
)

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := config.AuthConfig{
		Secret: "secret",
		Issuer: "storefront",
	}
	now := time.Now().UTC()
	sessionID := uuid.New()

	token, err := MintSessionToken(cfg, now, 30*time.Minute, SessionTokenPayload{SessionID: sessionID})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}

	if claims.SessionID != sessionID {
		t.Fatalf("expected session_id %s, got %s", sessionID, claims.SessionID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp.UTC(), claims.ExpiresAt.UTC())
	}
}

func TestParseSessionTokenRejectsWrongIssuer(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintSessionToken(config.AuthConfig{Secret: "secret", Issuer: "other"}, now, time.Minute, SessionTokenPayload{SessionID: uuid.New()})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	if _, err := ParseSessionToken(config.AuthConfig{Secret: "secret", Issuer: "storefront"}, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestMintSessionTokenValidation(t *testing.T) {
	now := time.Now().UTC()
	cfg := config.AuthConfig{Secret: "secret", Issuer: "storefront"}

	if _, err := MintSessionToken(config.AuthConfig{Issuer: "storefront"}, now, time.Minute, SessionTokenPayload{SessionID: uuid.New()}); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := MintSessionToken(cfg, now, 0, SessionTokenPayload{SessionID: uuid.New()}); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
	if _, err := MintSessionToken(cfg, now, time.Minute, SessionTokenPayload{}); err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestSourceLifecycle(t *testing.T) {
	source := NewSource()
	now := time.Now()

	if source.Valid(now) {
		t.Fatal("empty source should not be valid")
	}
	if source.Token() != "" {
		t.Fatal("empty source should return no token")
	}

	source.Set("bearer-token", now.Add(time.Minute))
	if !source.Valid(now) {
		t.Fatal("source with future expiry should be valid")
	}
	if source.Token() != "bearer-token" {
		t.Fatalf("unexpected token %q", source.Token())
	}

	if source.Valid(now.Add(2 * time.Minute)) {
		t.Fatal("source should expire")
	}

	source.Clear()
	if source.Valid(now) || source.Token() != "" {
		t.Fatal("cleared source should be empty")
	}
}
