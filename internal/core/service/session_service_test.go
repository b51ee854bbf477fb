package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

func newSessionFixture(t *testing.T) (*SessionService, *stubIdentityRepo, *stubRefreshStore) {
	t.Helper()
	identities := newStubIdentityRepo()
	refresh := newStubRefreshStore()

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := identities.Create(context.Background(), &domain.BackendIdentity{
		Kind:         domain.KindAdmin,
		Email:        "admin@siplan.com.br",
		PasswordHash: hash,
	}); err != nil {
		t.Fatal(err)
	}

	svc := NewSessionService(identities, refresh, testSecret, time.Hour, 24*time.Hour, zerolog.Nop())
	return svc, identities, refresh
}

func TestSignInSuccess(t *testing.T) {
	svc, _, refresh := newSessionFixture(t)

	res, err := svc.SignIn(context.Background(), "admin@siplan.com.br", "s3cret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if res.Identity.Email != "admin@siplan.com.br" {
		t.Errorf("email = %q", res.Identity.Email)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}

	id, err := refresh.Get(context.Background(), res.Tokens.RefreshToken)
	if err != nil || id != res.Identity.ID {
		t.Errorf("refresh token maps to %q, want %q", id, res.Identity.ID)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	_, err := svc.SignIn(context.Background(), "admin@siplan.com.br", "errada")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	_, err := svc.SignIn(context.Background(), "ninguem@siplan.com.br", "s3cret")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestSignInRejectsTenantIdentity(t *testing.T) {
	svc, identities, _ := newSessionFixture(t)

	// Tenant identities carry no password and must never sign in here.
	if _, err := identities.Create(context.Background(), &domain.BackendIdentity{
		Kind:         domain.KindTenant,
		Email:        "maria@tenants.siplanskills.local",
		TenantUserID: "user-1",
	}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.SignIn(context.Background(), "maria@tenants.siplanskills.local", "qualquer")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newSessionFixture(t)
	ctx := context.Background()

	signedIn, err := svc.SignIn(ctx, "admin@siplan.com.br", "s3cret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, signedIn.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.Tokens.RefreshToken == signedIn.Tokens.RefreshToken {
		t.Error("refresh token not rotated")
	}

	// The consumed token must be dead.
	if _, err := svc.Refresh(ctx, signedIn.Tokens.RefreshToken); !errors.Is(err, domain.ErrRefreshFailed) {
		t.Errorf("reusing consumed token: err = %v, want refresh failed", err)
	}

	// The new one must work.
	if _, err := svc.Refresh(ctx, refreshed.Tokens.RefreshToken); err != nil {
		t.Errorf("refreshing rotated token: %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	_, err := svc.Refresh(context.Background(), "token-inexistente")
	if !errors.Is(err, domain.ErrRefreshFailed) {
		t.Fatalf("err = %v, want refresh failed", err)
	}
}

func TestSignOutIsIdempotent(t *testing.T) {
	svc, _, refresh := newSessionFixture(t)
	ctx := context.Background()

	res, err := svc.SignIn(ctx, "admin@siplan.com.br", "s3cret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := svc.SignOut(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if err := svc.SignOut(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("second SignOut: %v", err)
	}
	if err := svc.SignOut(ctx, ""); err != nil {
		t.Fatalf("empty SignOut: %v", err)
	}

	if id, _ := refresh.Get(ctx, res.Tokens.RefreshToken); id != "" {
		t.Error("refresh token survived sign-out")
	}
}
