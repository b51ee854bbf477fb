package ports

import (
	"context"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// IdentityRepository persists backend auth principals.
//
// FindOrCreateForTenantUser must be idempotent: concurrent calls for the same
// tenant user return the same identity (unique index on tenant_user_id).
type IdentityRepository interface {
	Create(ctx context.Context, id *domain.BackendIdentity) (*domain.BackendIdentity, error)
	FindByEmail(ctx context.Context, email string) (*domain.BackendIdentity, error)
	FindByID(ctx context.Context, id string) (*domain.BackendIdentity, error)
	FindOrCreateForTenantUser(ctx context.Context, id *domain.BackendIdentity) (*domain.BackendIdentity, error)
}

// AdminRepository persists the administrator roster.
type AdminRepository interface {
	Create(ctx context.Context, a *domain.AdminProfile) (*domain.AdminProfile, error)
	FindByEmail(ctx context.Context, email string) (*domain.AdminProfile, error)
	List(ctx context.Context) ([]*domain.AdminProfile, error)
	Delete(ctx context.Context, email string) error
}
