package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// AdminHandler backs the administrative screens: cartorios, tenant users,
// login tokens, access grants, and the roster.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type createCartorioRequest struct {
	Nome   string `json:"nome" validate:"required"`
	Cidade string `json:"cidade"`
	Estado string `json:"estado"`
}

// CreateCartorio registers a new tenant organisation.
//
// @Summary      Create cartorio
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createCartorioRequest  true  "Cartorio"
// @Success      201   {object}  domain.Cartorio
// @Router       /admin/cartorios [post]
func (h *AdminHandler) CreateCartorio(c echo.Context) error {
	var req createCartorioRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.admin.CreateCartorio(c.Request().Context(), req.Nome, req.Cidade, req.Estado)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

// ListCartorios returns all tenant organisations.
//
// @Summary      List cartorios
// @Tags         admin
// @Produce      json
// @Success      200  {array}  domain.Cartorio
// @Router       /admin/cartorios [get]
func (h *AdminHandler) ListCartorios(c echo.Context) error {
	out, err := h.admin.ListCartorios(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

type setActiveRequest struct {
	Ativo bool `json:"ativo"`
}

// SetCartorioActive activates or deactivates a cartorio.
//
// @Summary      Set cartorio active flag
// @Tags         admin
// @Accept       json
// @Param        id    path  string            true  "Cartorio ID"
// @Param        body  body  setActiveRequest  true  "Active flag"
// @Success      204   "updated"
// @Router       /admin/cartorios/{id}/active [put]
func (h *AdminHandler) SetCartorioActive(c echo.Context) error {
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.admin.SetCartorioActive(c.Request().Context(), c.Param("id"), req.Ativo); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type createTenantUserRequest struct {
	CartorioID  string `json:"cartorio_id" validate:"required"`
	Username    string `json:"username" validate:"required,min=3"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// CreateTenantUser registers a named user inside a cartorio.
//
// @Summary      Create tenant user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createTenantUserRequest  true  "User"
// @Success      201   {object}  domain.TenantUser
// @Router       /admin/users [post]
func (h *AdminHandler) CreateTenantUser(c echo.Context) error {
	var req createTenantUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.admin.CreateTenantUser(c.Request().Context(), req.CartorioID, req.Username, req.DisplayName, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

type issueTokenRequest struct {
	CartorioID string     `json:"cartorio_id" validate:"required"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// IssueLoginToken mints a new opaque login token for a cartorio.
//
// @Summary      Issue login token
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      issueTokenRequest  true  "Token request"
// @Success      201   {object}  domain.LoginToken
// @Router       /admin/login-tokens [post]
func (h *AdminHandler) IssueLoginToken(c echo.Context) error {
	var req issueTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.admin.IssueLoginToken(c.Request().Context(), req.CartorioID, req.ExpiresAt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

// RevokeLoginToken deactivates a login token.
//
// @Summary      Revoke login token
// @Tags         admin
// @Param        id  path  string  true  "Token ID"
// @Success      204  "revoked"
// @Router       /admin/login-tokens/{id} [delete]
func (h *AdminHandler) RevokeLoginToken(c echo.Context) error {
	if err := h.admin.RevokeLoginToken(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type grantRequest struct {
	CartorioID  string `json:"cartorio_id" validate:"required"`
	SystemID    string `json:"system_id"`
	ProductID   string `json:"product_id"`
	AccessLevel string `json:"access_level" validate:"omitempty,oneof=full viewer preview"`
}

// GrantAccess creates an access grant restricting a cartorio to part of the
// catalog.
//
// @Summary      Grant catalog access
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      grantRequest  true  "Grant"
// @Success      201   {object}  domain.AccessGrant
// @Router       /admin/grants [post]
func (h *AdminHandler) GrantAccess(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.admin.GrantAccess(c.Request().Context(), req.CartorioID, req.SystemID, req.ProductID, domain.AccessLevel(req.AccessLevel))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

// ListGrants returns all grants of a cartorio.
//
// @Summary      List grants
// @Tags         admin
// @Produce      json
// @Param        cartorioID  path  string  true  "Cartorio ID"
// @Success      200  {array}  domain.AccessGrant
// @Router       /admin/cartorios/{cartorioID}/grants [get]
func (h *AdminHandler) ListGrants(c echo.Context) error {
	out, err := h.admin.ListGrants(c.Request().Context(), c.Param("cartorioID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// RevokeGrant deactivates a grant.
//
// @Summary      Revoke grant
// @Tags         admin
// @Param        id  path  string  true  "Grant ID"
// @Success      204  "revoked"
// @Router       /admin/grants/{id} [delete]
func (h *AdminHandler) RevokeGrant(c echo.Context) error {
	if err := h.admin.RevokeGrant(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type addAdminRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name"`
}

// AddAdmin inserts an email into the administrator roster.
//
// @Summary      Add roster entry
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      addAdminRequest  true  "Admin"
// @Success      201   {object}  domain.AdminProfile
// @Router       /admin/roster [post]
func (h *AdminHandler) AddAdmin(c echo.Context) error {
	var req addAdminRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.admin.AddAdmin(c.Request().Context(), req.Email, req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

// RemoveAdmin removes an email from the roster.
//
// @Summary      Remove roster entry
// @Tags         admin
// @Param        email  path  string  true  "Admin email"
// @Success      204  "removed"
// @Router       /admin/roster/{email} [delete]
func (h *AdminHandler) RemoveAdmin(c echo.Context) error {
	if err := h.admin.RemoveAdmin(c.Request().Context(), c.Param("email")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
