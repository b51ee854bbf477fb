package ports

import (
	"context"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// CatalogRepository persists the system → product → lesson hierarchy and the
// curated trilhas.
type CatalogRepository interface {
	CreateSystem(ctx context.Context, s *domain.System) (*domain.System, error)
	ListSystems(ctx context.Context) ([]*domain.System, error)
	DeleteSystem(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListProductsBySystem(ctx context.Context, systemID string) ([]*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateLesson(ctx context.Context, l *domain.VideoLesson) (*domain.VideoLesson, error)
	FindLesson(ctx context.Context, id string) (*domain.VideoLesson, error)
	ListLessons(ctx context.Context) ([]*domain.VideoLesson, error)
	ListLessonsByProduct(ctx context.Context, productID string) ([]*domain.VideoLesson, error)
	DeleteLesson(ctx context.Context, id string) error

	CreateTrilha(ctx context.Context, t *domain.Trilha) (*domain.Trilha, error)
	ListTrilhas(ctx context.Context) ([]*domain.Trilha, error)
	DeleteTrilha(ctx context.Context, id string) error
}

// GrantRepository persists tenant access grants.
type GrantRepository interface {
	Create(ctx context.Context, g *domain.AccessGrant) (*domain.AccessGrant, error)
	ListActiveByCartorio(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error)
	ListByCartorio(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error)
	Revoke(ctx context.Context, id string) error
}
