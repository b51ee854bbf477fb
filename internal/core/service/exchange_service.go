package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// tenantEmailDomain is used to derive a stable identity email for tenant
// users that have none on record. The derived address is never mailed.
const tenantEmailDomain = "tenants.siplanskills.local"

// ExchangeService validates a (username, login token) pair and mints the
// signed session bound to the user's 1:1 backend identity. The exchange is
// idempotent: repeated valid calls reuse the identity created on first login.
type ExchangeService struct {
	users      ports.TenantUserRepository
	cartorios  ports.CartorioRepository
	tokens     ports.LoginTokenRepository
	identities ports.IdentityRepository
	refresh    ports.RefreshTokenStore
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewExchangeService(
	users ports.TenantUserRepository,
	cartorios ports.CartorioRepository,
	tokens ports.LoginTokenRepository,
	identities ports.IdentityRepository,
	refresh ports.RefreshTokenStore,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
	log zerolog.Logger,
) *ExchangeService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &ExchangeService{
		users:      users,
		cartorios:  cartorios,
		tokens:     tokens,
		identities: identities,
		refresh:    refresh,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		log:        log,
	}
}

// WithNow overrides the clock, for tests.
func (s *ExchangeService) WithNow(now func() time.Time) *ExchangeService {
	s.now = now
	return s
}

func (s *ExchangeService) Exchange(ctx context.Context, username, loginToken string) (*ports.ExchangeResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || loginToken == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("exchange: find user: %w", err)
	}
	if !user.Ativo {
		return nil, domain.ErrTenantInactive
	}

	cartorio, err := s.cartorios.FindByID(ctx, user.CartorioID)
	if err != nil {
		return nil, fmt.Errorf("exchange: find cartorio: %w", err)
	}
	if !cartorio.Ativo {
		return nil, domain.ErrTenantInactive
	}

	token, err := s.tokens.FindByToken(ctx, loginToken)
	if err != nil {
		if errors.Is(err, domain.ErrLoginTokenNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("exchange: find token: %w", err)
	}
	// The token must belong to the user's own cartorio.
	if token.CartorioID != user.CartorioID {
		return nil, domain.ErrInvalidCredentials
	}
	if !token.Usable(s.now()) {
		return nil, domain.ErrTenantInactive
	}

	email := user.Email
	if email == "" {
		email = fmt.Sprintf("%s@%s", strings.ToLower(user.Username), tenantEmailDomain)
	}
	identity, err := s.identities.FindOrCreateForTenantUser(ctx, &domain.BackendIdentity{
		Kind:         domain.KindTenant,
		Email:        email,
		TenantUserID: user.ID,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: identity: %w", err)
	}

	pair, err := s.issueTokens(ctx, identity, user, cartorio)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("username", user.Username).
		Str("cartorio_id", cartorio.ID).
		Str("identity_id", identity.ID).
		Msg("tenant login exchange succeeded")

	return &ports.ExchangeResult{
		User:         user,
		CartorioNome: cartorio.Nome,
		Tokens:       *pair,
	}, nil
}

func (s *ExchangeService) issueTokens(ctx context.Context, identity *domain.BackendIdentity, user *domain.TenantUser, cartorio *domain.Cartorio) (*ports.TokenPair, error) {
	now := s.now()
	claims := accessClaims(identity.ID, domain.KindTenant, identity.Email, s.accessTTL, now)
	claims[ClaimUsername] = user.Username
	claims[ClaimUserID] = user.ID
	claims[ClaimCartorioID] = cartorio.ID
	claims[ClaimCartorioNome] = cartorio.Nome

	access, err := signToken(s.jwtSecret, claims)
	if err != nil {
		return nil, fmt.Errorf("exchange: sign access token: %w", err)
	}

	refresh := newRefreshToken()
	if err := s.refresh.Save(ctx, refresh, identity.ID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("exchange: store refresh token: %w", err)
	}

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.accessTTL),
	}, nil
}
