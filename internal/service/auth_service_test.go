package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
	"acadef/backend/pkg/jwt"
)

func seedUser(t *testing.T, env *testEnv, username, email, password, role string, active bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
	if err := env.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return u
}

// ── Login ──

func TestAuthService_Login_ByUsernameAndEmail(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "admin", "admin@acadef.test", "secret-pass", model.RoleAdmin, true)

	for _, identifier := range []string{"admin", "ADMIN@acadef.test"} {
		resp, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Identifier: identifier, Password: "secret-pass"})
		if err != nil {
			t.Fatalf("login with %q failed: %v", identifier, err)
		}
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Errorf("login with %q returned empty tokens", identifier)
		}
		if resp.User.Role != model.RoleAdmin {
			t.Errorf("expected role admin, got %s", resp.User.Role)
		}
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "admin", "admin@acadef.test", "secret-pass", model.RoleAdmin, true)

	_, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Identifier: "admin", Password: "nope"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Identifier: "ghost", Password: "x"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_Disabled(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "old", "old@acadef.test", "secret-pass", model.RoleGuardian, false)

	_, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Identifier: "old", Password: "secret-pass"})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthService_Login_CandidateIDInProfile(t *testing.T) {
	env := newTestEnv(t)
	u := seedUser(t, env, "jean.dupont", "jean@example.com", "secret-pass", model.RoleCandidate, true)
	cand := &model.Candidate{UserID: &u.UserID, FirstName: "Jean", LastName: "Dupont", Email: u.Email}
	_ = env.candidates.Create(context.Background(), cand)

	resp, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Identifier: "jean.dupont", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.User.CandidateID != cand.CandidateID {
		t.Errorf("expected candidate id %s, got %q", cand.CandidateID, resp.User.CandidateID)
	}
}

// ── Refresh / Logout ──

func TestAuthService_RefreshToken_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "admin", "admin@acadef.test", "secret-pass", model.RoleAdmin, true)
	ctx := context.Background()

	login, err := env.svc.Auth.Login(ctx, &dto.LoginRequest{Identifier: "admin", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	refreshed, err := env.svc.Auth.RefreshToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("refresh returned an empty access token")
	}

	if _, err := env.svc.Auth.RefreshToken(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reusing a refresh token should fail with ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "admin", "admin@acadef.test", "secret-pass", model.RoleAdmin, true)

	login, _ := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Identifier: "admin", Password: "secret-pass"})
	if _, err := env.svc.Auth.RefreshToken(context.Background(), login.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Logout_Blacklists(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "admin", "admin@acadef.test", "secret-pass", model.RoleAdmin, true)
	ctx := context.Background()

	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Identifier: "admin", Password: "secret-pass"})
	claims, err := jwt.NewManager(&env.cfg.Auth).ParseToken(login.AccessToken)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if err := env.svc.Auth.Logout(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if revoked, _ := env.blacklist.IsBlacklisted(ctx, claims.ID); !revoked {
		t.Error("access token should be blacklisted after logout")
	}
}

// ── ChangePassword ──

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	u := seedUser(t, env, "marie.dupont", "marie@example.com", "temp-pass-1", model.RoleGuardian, true)
	u.MustChangePassword = true
	_ = env.users.Update(context.Background(), u)
	ctx := context.Background()

	err := env.svc.Auth.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "new-pass-123"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}

	if err := env.svc.Auth.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "temp-pass-1", NewPassword: "new-pass-123"}); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	stored, _ := env.users.GetByID(ctx, u.UserID)
	if stored.MustChangePassword {
		t.Error("MustChangePassword should be cleared")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-pass-123")) != nil {
		t.Error("new password should be stored")
	}
}

func TestAuthService_GetCurrentUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Auth.GetCurrentUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
