package ports

import (
	"context"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// ScopedCatalog is what the tenant-facing catalog function returns:
// grant-filtered systems plus a flag telling the client whether any explicit
// grants applied (false means the cartorio sees the unrestricted catalog).
type ScopedCatalog struct {
	Sistemas       []*domain.CatalogSystem `json:"sistemas"`
	HasPermissions bool                    `json:"has_permissions"`
}

// CatalogService exposes the catalog to both identity types: ForCartorio is
// the grant-filtered tenant view, Full the unfiltered admin view. The CRUD
// methods back the admin authoring screens.
type CatalogService interface {
	ForCartorio(ctx context.Context, cartorioID string) (*ScopedCatalog, error)
	Full(ctx context.Context) ([]*domain.CatalogSystem, error)

	CreateSystem(ctx context.Context, nome, descricao string, ordem int) (*domain.System, error)
	CreateProduct(ctx context.Context, systemID, nome, descricao string, ordem int) (*domain.Product, error)
	CreateLesson(ctx context.Context, productID, titulo, descricao, videoURL string, duracaoSecs, ordem int) (*domain.VideoLesson, error)
	CreateTrilha(ctx context.Context, nome, descricao string, lessonIDs []string) (*domain.Trilha, error)
	ListTrilhas(ctx context.Context) ([]*domain.Trilha, error)
}
