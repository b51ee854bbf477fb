package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

const testSecret = "test-secret"

type exchangeFixture struct {
	users      *stubUserRepo
	cartorios  *stubCartorioRepo
	tokens     *stubTokenRepo
	identities *stubIdentityRepo
	refresh    *stubRefreshStore
	service    *ExchangeService

	cartorio *domain.Cartorio
	user     *domain.TenantUser
	token    *domain.LoginToken
}

func newExchangeFixture(t *testing.T) *exchangeFixture {
	t.Helper()
	f := &exchangeFixture{
		users:      newStubUserRepo(),
		cartorios:  newStubCartorioRepo(),
		tokens:     newStubTokenRepo(),
		identities: newStubIdentityRepo(),
		refresh:    newStubRefreshStore(),
	}
	f.service = NewExchangeService(
		f.users, f.cartorios, f.tokens, f.identities, f.refresh,
		testSecret, time.Hour, 24*time.Hour, zerolog.Nop())

	ctx := context.Background()
	var err error
	f.cartorio, err = f.cartorios.Create(ctx, &domain.Cartorio{Nome: "1º Ofício de Notas", Ativo: true})
	if err != nil {
		t.Fatal(err)
	}
	f.user, err = f.users.Create(ctx, &domain.TenantUser{
		CartorioID:  f.cartorio.ID,
		Username:    "maria",
		DisplayName: "Maria Silva",
		Ativo:       true,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.token, err = f.tokens.Create(ctx, &domain.LoginToken{
		CartorioID: f.cartorio.ID,
		Token:      "CART-ABCD-12345678",
		Ativo:      true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestExchangeIssuesTenantSession(t *testing.T) {
	f := newExchangeFixture(t)

	res, err := f.service.Exchange(context.Background(), "  maria ", "CART-ABCD-12345678")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if res.User.Username != "maria" {
		t.Errorf("username = %q", res.User.Username)
	}
	if res.CartorioNome != "1º Ofício de Notas" {
		t.Errorf("cartorio nome = %q", res.CartorioNome)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}

	// The refresh token must be live in the store.
	identityID, err := f.refresh.Get(context.Background(), res.Tokens.RefreshToken)
	if err != nil || identityID == "" {
		t.Errorf("refresh token not stored: id=%q err=%v", identityID, err)
	}

	// The access token carries the tenant claims.
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.Tokens.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims[ClaimKind] != string(domain.KindTenant) {
		t.Errorf("kind claim = %v", claims[ClaimKind])
	}
	if claims[ClaimCartorioID] != f.cartorio.ID {
		t.Errorf("cartorio claim = %v, want %s", claims[ClaimCartorioID], f.cartorio.ID)
	}
	if claims[ClaimUsername] != "maria" {
		t.Errorf("username claim = %v", claims[ClaimUsername])
	}
}

func TestExchangeReusesIdentityAcrossLogins(t *testing.T) {
	f := newExchangeFixture(t)
	ctx := context.Background()

	if _, err := f.service.Exchange(ctx, "maria", "CART-ABCD-12345678"); err != nil {
		t.Fatalf("first exchange: %v", err)
	}
	if _, err := f.service.Exchange(ctx, "maria", "CART-ABCD-12345678"); err != nil {
		t.Fatalf("second exchange: %v", err)
	}

	if len(f.identities.identities) != 1 {
		t.Errorf("identities minted = %d, want 1", len(f.identities.identities))
	}
}

func TestExchangeDerivesEmailWhenMissing(t *testing.T) {
	f := newExchangeFixture(t)

	if _, err := f.service.Exchange(context.Background(), "maria", "CART-ABCD-12345678"); err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	identity, err := f.identities.FindByEmail(context.Background(), "maria@tenants.siplanskills.local")
	if err != nil {
		t.Fatalf("derived identity not found: %v", err)
	}
	if identity.TenantUserID != f.user.ID {
		t.Errorf("identity bound to %q, want %q", identity.TenantUserID, f.user.ID)
	}
}

func TestExchangeUnknownUser(t *testing.T) {
	f := newExchangeFixture(t)

	_, err := f.service.Exchange(context.Background(), "desconhecido", "CART-ABCD-12345678")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestExchangeInactiveCartorio(t *testing.T) {
	f := newExchangeFixture(t)
	if err := f.cartorios.SetActive(context.Background(), f.cartorio.ID, false); err != nil {
		t.Fatal(err)
	}

	_, err := f.service.Exchange(context.Background(), "maria", "CART-ABCD-12345678")
	if !errors.Is(err, domain.ErrTenantInactive) {
		t.Fatalf("err = %v, want tenant inactive", err)
	}
}

func TestExchangeRevokedToken(t *testing.T) {
	f := newExchangeFixture(t)
	if err := f.tokens.SetActive(context.Background(), f.token.ID, false); err != nil {
		t.Fatal(err)
	}

	_, err := f.service.Exchange(context.Background(), "maria", "CART-ABCD-12345678")
	if !errors.Is(err, domain.ErrTenantInactive) {
		t.Fatalf("err = %v, want tenant inactive", err)
	}
}

func TestExchangeExpiredToken(t *testing.T) {
	f := newExchangeFixture(t)

	past := time.Now().Add(-time.Hour)
	f.tokens.mu.Lock()
	f.tokens.tokens[f.token.ID].ExpiresAt = &past
	f.tokens.mu.Unlock()

	_, err := f.service.Exchange(context.Background(), "maria", "CART-ABCD-12345678")
	if !errors.Is(err, domain.ErrTenantInactive) {
		t.Fatalf("err = %v, want tenant inactive", err)
	}
}

func TestExchangeTokenOfAnotherCartorio(t *testing.T) {
	f := newExchangeFixture(t)
	ctx := context.Background()

	other, err := f.cartorios.Create(ctx, &domain.Cartorio{Nome: "2º Ofício", Ativo: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.tokens.Create(ctx, &domain.LoginToken{
		CartorioID: other.ID,
		Token:      "CART-WXYZ-87654321",
		Ativo:      true,
	}); err != nil {
		t.Fatal(err)
	}

	_, err = f.service.Exchange(ctx, "maria", "CART-WXYZ-87654321")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestExchangeInactiveUser(t *testing.T) {
	f := newExchangeFixture(t)

	f.users.mu.Lock()
	f.users.users[f.user.ID].Ativo = false
	f.users.mu.Unlock()

	_, err := f.service.Exchange(context.Background(), "maria", "CART-ABCD-12345678")
	if !errors.Is(err, domain.ErrTenantInactive) {
		t.Fatalf("err = %v, want tenant inactive", err)
	}
}

func TestExchangeEmptyInputs(t *testing.T) {
	f := newExchangeFixture(t)

	for _, tc := range []struct{ username, token string }{
		{"", "CART-ABCD-12345678"},
		{"maria", ""},
		{"   ", "CART-ABCD-12345678"},
	} {
		if _, err := f.service.Exchange(context.Background(), tc.username, tc.token); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("Exchange(%q, %q) = %v, want invalid credentials", tc.username, tc.token, err)
		}
	}
}
