package jwt

import (
	"testing"
	"time"

	"acadef/backend/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "candidate")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("expected UserID=user-1, got %s", claims.UserID)
	}
	if claims.Role != "candidate" {
		t.Errorf("expected Role=candidate, got %s", claims.Role)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("expected TokenType=access, got %s", claims.TokenType)
	}
	if claims.Issuer != "acadef" {
		t.Errorf("expected Issuer=acadef, got %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI must not be empty")
	}
}

func TestGenerateRefreshToken_Default(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-1", "guardian", false)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("expected TokenType=refresh, got %s", claims.TokenType)
	}
	if claims.RememberMe {
		t.Error("expected RememberMe=false")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("default refresh TTL should be about 24h, got %v", ttl)
	}
}

func TestGenerateRefreshToken_RememberMe(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-1", "guardian", true)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if !claims.RememberMe {
		t.Error("expected RememberMe=true")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("remember-me refresh TTL should be about 7 days, got %v", ttl)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	if _, err := m.ParseToken("invalid.token.string"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken("user-1", "admin")
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:              "test-secret",
		AccessTokenTTL:         1 * time.Millisecond,
		RefreshTokenTTLDefault: 1 * time.Millisecond,
	})

	token, _ := m.GenerateAccessToken("user-1", "admin")
	time.Sleep(1100 * time.Millisecond)

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
