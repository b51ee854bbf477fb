package ports

import (
	"context"
	"time"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// TokenPair is a signed access token plus the opaque refresh token that can
// rotate it.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExchangeResult is the payload of a successful tenant login exchange.
type ExchangeResult struct {
	User         *domain.TenantUser `json:"user"`
	CartorioNome string             `json:"cartorio_nome"`
	Tokens       TokenPair          `json:"tokens"`
}

// ExchangeService performs the one-time (username, login token) → signed
// session exchange. Idempotent per pair: repeated valid calls reuse the same
// backend identity.
type ExchangeService interface {
	Exchange(ctx context.Context, username, loginToken string) (*ExchangeResult, error)
}

// SessionResult is the payload of an admin sign-in or refresh.
type SessionResult struct {
	Identity *domain.BackendIdentity `json:"identity"`
	Tokens   TokenPair               `json:"tokens"`
}

// SessionService implements the backend-native email/password session used by
// administrators.
type SessionService interface {
	SignIn(ctx context.Context, email, password string) (*SessionResult, error)
	Refresh(ctx context.Context, refreshToken string) (*SessionResult, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// RefreshTokenStore holds live refresh tokens. Delete of an unknown token is
// a no-op so sign-out stays idempotent.
type RefreshTokenStore interface {
	Save(ctx context.Context, token, identityID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (identityID string, err error)
	Delete(ctx context.Context, token string) error
}

// AdminStatusCache memoises roster membership per email. Get returns nil when
// the email has not been cached yet.
type AdminStatusCache interface {
	Get(ctx context.Context, email string) (*bool, error)
	Set(ctx context.Context, email string, isAdmin bool) error
	Invalidate(ctx context.Context, email string) error
}

// AdminService manages tenants, login tokens, grants, and the roster.
type AdminService interface {
	CreateCartorio(ctx context.Context, nome, cidade, estado string) (*domain.Cartorio, error)
	ListCartorios(ctx context.Context) ([]*domain.Cartorio, error)
	SetCartorioActive(ctx context.Context, id string, active bool) error

	CreateTenantUser(ctx context.Context, cartorioID, username, displayName, email string) (*domain.TenantUser, error)

	IssueLoginToken(ctx context.Context, cartorioID string, expiresAt *time.Time) (*domain.LoginToken, error)
	RevokeLoginToken(ctx context.Context, tokenID string) error

	GrantAccess(ctx context.Context, cartorioID, systemID, productID string, level domain.AccessLevel) (*domain.AccessGrant, error)
	ListGrants(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error)
	RevokeGrant(ctx context.Context, grantID string) error

	IsAdmin(ctx context.Context, email string) (bool, error)
	FindAdmin(ctx context.Context, email string) (*domain.AdminProfile, error)
	AddAdmin(ctx context.Context, email, displayName string) (*domain.AdminProfile, error)
	RemoveAdmin(ctx context.Context, email string) error
}
