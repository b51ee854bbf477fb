package ports

import (
	"context"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// CartorioRepository persists tenant organisations.
type CartorioRepository interface {
	Create(ctx context.Context, c *domain.Cartorio) (*domain.Cartorio, error)
	FindByID(ctx context.Context, id string) (*domain.Cartorio, error)
	List(ctx context.Context) ([]*domain.Cartorio, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// TenantUserRepository persists the named users inside cartorios.
type TenantUserRepository interface {
	Create(ctx context.Context, u *domain.TenantUser) (*domain.TenantUser, error)
	FindByUsername(ctx context.Context, username string) (*domain.TenantUser, error)
	FindByID(ctx context.Context, id string) (*domain.TenantUser, error)
}

// LoginTokenRepository persists the opaque cartorio access tokens.
type LoginTokenRepository interface {
	Create(ctx context.Context, t *domain.LoginToken) (*domain.LoginToken, error)
	FindByToken(ctx context.Context, token string) (*domain.LoginToken, error)
	ListByCartorio(ctx context.Context, cartorioID string) ([]*domain.LoginToken, error)
	SetActive(ctx context.Context, id string, active bool) error
}
