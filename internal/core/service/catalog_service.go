package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// CatalogService assembles the system → product → lesson hierarchy and
// applies tenant access-grant filtering for the scoped view.
type CatalogService struct {
	catalog ports.CatalogRepository
	grants  ports.GrantRepository
	now     func() time.Time
	log     zerolog.Logger
}

func NewCatalogService(catalog ports.CatalogRepository, grants ports.GrantRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, grants: grants, now: time.Now, log: log}
}

// ForCartorio returns the catalog visible to one cartorio. No active grants
// means the unrestricted catalog (HasPermissions=false). With grants present,
// a system is visible when granted whole, or trimmed to its explicitly
// granted products otherwise.
func (s *CatalogService) ForCartorio(ctx context.Context, cartorioID string) (*ports.ScopedCatalog, error) {
	full, err := s.assemble(ctx)
	if err != nil {
		return nil, err
	}

	grants, err := s.grants.ListActiveByCartorio(ctx, cartorioID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list grants: %w", err)
	}
	if len(grants) == 0 {
		return &ports.ScopedCatalog{Sistemas: full, HasPermissions: false}, nil
	}

	grantedSystems := make(map[string]struct{})
	grantedProducts := make(map[string]struct{})
	for _, g := range grants {
		switch {
		case g.ProductID != "":
			grantedProducts[g.ProductID] = struct{}{}
		case g.SystemID != "":
			grantedSystems[g.SystemID] = struct{}{}
		}
	}

	var visible []*domain.CatalogSystem
	for _, sys := range full {
		if _, ok := grantedSystems[sys.ID]; ok {
			visible = append(visible, sys)
			continue
		}
		var kept []domain.CatalogProduct
		for _, p := range sys.Products {
			if _, ok := grantedProducts[p.ID]; ok {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			trimmed := *sys
			trimmed.Products = kept
			visible = append(visible, &trimmed)
		}
	}

	if visible == nil {
		visible = []*domain.CatalogSystem{}
	}
	return &ports.ScopedCatalog{Sistemas: visible, HasPermissions: true}, nil
}

// Full returns the unfiltered catalog for administrative views.
func (s *CatalogService) Full(ctx context.Context) ([]*domain.CatalogSystem, error) {
	return s.assemble(ctx)
}

func (s *CatalogService) assemble(ctx context.Context) ([]*domain.CatalogSystem, error) {
	systems, err := s.catalog.ListSystems(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list systems: %w", err)
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	lessons, err := s.catalog.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list lessons: %w", err)
	}

	lessonsByProduct := make(map[string][]domain.VideoLesson)
	for _, l := range lessons {
		lessonsByProduct[l.ProductID] = append(lessonsByProduct[l.ProductID], *l)
	}

	productsBySystem := make(map[string][]domain.CatalogProduct)
	for _, p := range products {
		cp := domain.CatalogProduct{Product: *p, Lessons: lessonsByProduct[p.ID]}
		if cp.Lessons == nil {
			cp.Lessons = []domain.VideoLesson{}
		}
		productsBySystem[p.SystemID] = append(productsBySystem[p.SystemID], cp)
	}

	out := make([]*domain.CatalogSystem, 0, len(systems))
	for _, sys := range systems {
		cs := &domain.CatalogSystem{System: *sys, Products: productsBySystem[sys.ID]}
		if cs.Products == nil {
			cs.Products = []domain.CatalogProduct{}
		}
		out = append(out, cs)
	}
	return out, nil
}

func (s *CatalogService) CreateSystem(ctx context.Context, nome, descricao string, ordem int) (*domain.System, error) {
	if nome == "" {
		return nil, fmt.Errorf("catalog: %w: nome is required", domain.ErrInvalidInput)
	}
	return s.catalog.CreateSystem(ctx, &domain.System{
		Nome:      nome,
		Descricao: descricao,
		Ordem:     ordem,
		CreatedAt: s.now().UTC(),
	})
}

func (s *CatalogService) CreateProduct(ctx context.Context, systemID, nome, descricao string, ordem int) (*domain.Product, error) {
	return s.catalog.CreateProduct(ctx, &domain.Product{
		SystemID:  systemID,
		Nome:      nome,
		Descricao: descricao,
		Ordem:     ordem,
		CreatedAt: s.now().UTC(),
	})
}

func (s *CatalogService) CreateLesson(ctx context.Context, productID, titulo, descricao, videoURL string, duracaoSecs, ordem int) (*domain.VideoLesson, error) {
	return s.catalog.CreateLesson(ctx, &domain.VideoLesson{
		ProductID:   productID,
		Titulo:      titulo,
		Descricao:   descricao,
		VideoURL:    videoURL,
		DuracaoSecs: duracaoSecs,
		Ordem:       ordem,
		CreatedAt:   s.now().UTC(),
	})
}

func (s *CatalogService) CreateTrilha(ctx context.Context, nome, descricao string, lessonIDs []string) (*domain.Trilha, error) {
	for _, id := range lessonIDs {
		if _, err := s.catalog.FindLesson(ctx, id); err != nil {
			return nil, fmt.Errorf("catalog: trilha lesson %s: %w", id, err)
		}
	}
	return s.catalog.CreateTrilha(ctx, &domain.Trilha{
		Nome:      nome,
		Descricao: descricao,
		LessonIDs: lessonIDs,
		CreatedAt: s.now().UTC(),
	})
}

func (s *CatalogService) ListTrilhas(ctx context.Context) ([]*domain.Trilha, error) {
	return s.catalog.ListTrilhas(ctx)
}
