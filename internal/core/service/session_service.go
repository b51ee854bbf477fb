package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// SessionService implements the backend-native email/password session used by
// administrators: sign-in, refresh with rotation, sign-out.
type SessionService struct {
	identities ports.IdentityRepository
	refresh    ports.RefreshTokenStore
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewSessionService(
	identities ports.IdentityRepository,
	refresh ports.RefreshTokenStore,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
	log zerolog.Logger,
) *SessionService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &SessionService{
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
func (s *SessionService) WithNow(now func() time.Time) *SessionService {
	s.now = now
	return s
}

func (s *SessionService) SignIn(ctx context.Context, email, password string) (*ports.SessionResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("signin: find identity: %w", err)
	}
	// Tenant identities have no password and must never pass this path.
	if identity.Kind != domain.KindAdmin || identity.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", identity.Email).Msg("admin signed in")
	return &ports.SessionResult{Identity: identity, Tokens: *pair}, nil
}

// Refresh rotates the refresh token: the presented token is consumed and a
// new pair is issued. Unknown or already-consumed tokens fail with
// ErrRefreshFailed.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*ports.SessionResult, error) {
	if refreshToken == "" {
		return nil, domain.ErrRefreshFailed
	}

	identityID, err := s.refresh.Get(ctx, refreshToken)
	if err != nil || identityID == "" {
		return nil, domain.ErrRefreshFailed
	}
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("refresh: rotate: %w", err)
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		return nil, domain.ErrRefreshFailed
	}

	pair, err := s.issueTokens(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &ports.SessionResult{Identity: identity, Tokens: *pair}, nil
}

// SignOut revokes the refresh token. Idempotent: revoking an unknown token is
// a no-op.
func (s *SessionService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("signout: %w", err)
	}
	return nil
}

func (s *SessionService) issueTokens(ctx context.Context, identity *domain.BackendIdentity) (*ports.TokenPair, error) {
	now := s.now()
	claims := accessClaims(identity.ID, identity.Kind, identity.Email, s.accessTTL, now)

	access, err := signToken(s.jwtSecret, claims)
	if err != nil {
		return nil, fmt.Errorf("session: sign access token: %w", err)
	}

	refresh := newRefreshToken()
	if err := s.refresh.Save(ctx, refresh, identity.ID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("session: store refresh token: %w", err)
	}

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.accessTTL),
	}, nil
}

// HashPassword is used by provisioning paths (admin creation, seeds).
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
