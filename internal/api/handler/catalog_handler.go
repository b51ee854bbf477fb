package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/siplan/siplan-skills/internal/api/metrics"
	"github.com/siplan/siplan-skills/internal/api/middleware"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// CatalogHandler serves both catalog views: the grant-filtered tenant
// function and the unfiltered admin listing, plus the authoring CRUD.
type CatalogHandler struct {
	catalog ports.CatalogService
}

func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Scoped returns the catalog visible to the calling tenant session.
//
// @Summary      Tenant-scoped catalog
// @Tags         functions
// @Produce      json
// @Param        X-Session-Token  header    string  true  "Signed session token"
// @Success      200  {object}  ports.ScopedCatalog
// @Failure      401  {object}  map[string]string
// @Router       /functions/catalog [get]
func (h *CatalogHandler) Scoped(c echo.Context) error {
	cartorioID, _ := c.Get(middleware.CtxCartorioID).(string)
	if cartorioID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	out, err := h.catalog.ForCartorio(c.Request().Context(), cartorioID)
	if err != nil {
		return err
	}

	scope := "unrestricted"
	if out.HasPermissions {
		scope = "restricted"
	}
	metrics.CatalogRequestsTotal.WithLabelValues(scope).Inc()
	return c.JSON(http.StatusOK, out)
}

// Full returns the unfiltered catalog for administrative views.
//
// @Summary      Full catalog
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  domain.CatalogSystem
// @Router       /catalog [get]
func (h *CatalogHandler) Full(c echo.Context) error {
	out, err := h.catalog.Full(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

type createSystemRequest struct {
	Nome      string `json:"nome" validate:"required"`
	Descricao string `json:"descricao"`
	Ordem     int    `json:"ordem"`
}

// CreateSystem adds a catalog system.
//
// @Summary      Create system
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body      createSystemRequest  true  "System"
// @Success      201   {object}  domain.System
// @Router       /catalog/systems [post]
func (h *CatalogHandler) CreateSystem(c echo.Context) error {
	var req createSystemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.catalog.CreateSystem(c.Request().Context(), req.Nome, req.Descricao, req.Ordem)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

type createProductRequest struct {
	SystemID  string `json:"system_id" validate:"required"`
	Nome      string `json:"nome" validate:"required"`
	Descricao string `json:"descricao"`
	Ordem     int    `json:"ordem"`
}

// CreateProduct adds a product under a system.
//
// @Summary      Create product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body      createProductRequest  true  "Product"
// @Success      201   {object}  domain.Product
// @Router       /catalog/products [post]
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.catalog.CreateProduct(c.Request().Context(), req.SystemID, req.Nome, req.Descricao, req.Ordem)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

type createLessonRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	Titulo      string `json:"titulo" validate:"required"`
	Descricao   string `json:"descricao"`
	VideoURL    string `json:"video_url" validate:"required,url"`
	DuracaoSecs int    `json:"duracao_secs"`
	Ordem       int    `json:"ordem"`
}

// CreateLesson adds a video lesson under a product.
//
// @Summary      Create video lesson
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body      createLessonRequest  true  "Lesson"
// @Success      201   {object}  domain.VideoLesson
// @Router       /catalog/lessons [post]
func (h *CatalogHandler) CreateLesson(c echo.Context) error {
	var req createLessonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.catalog.CreateLesson(c.Request().Context(), req.ProductID, req.Titulo, req.Descricao, req.VideoURL, req.DuracaoSecs, req.Ordem)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

type createTrilhaRequest struct {
	Nome      string   `json:"nome" validate:"required"`
	Descricao string   `json:"descricao"`
	LessonIDs []string `json:"lesson_ids" validate:"required,min=1"`
}

// CreateTrilha adds a curated learning path.
//
// @Summary      Create trilha
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body      createTrilhaRequest  true  "Trilha"
// @Success      201   {object}  domain.Trilha
// @Router       /catalog/trilhas [post]
func (h *CatalogHandler) CreateTrilha(c echo.Context) error {
	var req createTrilhaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.catalog.CreateTrilha(c.Request().Context(), req.Nome, req.Descricao, req.LessonIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

// ListTrilhas returns all curated learning paths.
//
// @Summary      List trilhas
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  domain.Trilha
// @Router       /catalog/trilhas [get]
func (h *CatalogHandler) ListTrilhas(c echo.Context) error {
	out, err := h.catalog.ListTrilhas(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
