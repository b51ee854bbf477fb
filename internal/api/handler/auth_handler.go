package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/siplan/siplan-skills/internal/api/metrics"
	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// AuthHandler exposes the backend-native admin session: sign-in, refresh,
// sign-out, and the roster lookup the client uses to gate AdminActive.
type AuthHandler struct {
	sessions ports.SessionService
	admins   ports.AdminService
}

func NewAuthHandler(sessions ports.SessionService, admins ports.AdminService) *AuthHandler {
	return &AuthHandler{sessions: sessions, admins: admins}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email"`
	IdentityID   string    `json:"identity_id"`
}

// Login authenticates an administrator with email and password.
//
// @Summary      Admin sign-in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.sessions.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("admin", "invalid_credentials").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("admin", "error").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("admin", "success").Inc()
	return c.JSON(http.StatusOK, toSessionResponse(res))
}

// Refresh rotates a refresh token into a new session pair.
//
// @Summary      Refresh session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return err
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toSessionResponse(res))
}

// Logout revokes a refresh token. Idempotent.
//
// @Summary      Sign out
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      logoutRequest  true  "Refresh token"
// @Success      204   "revoked"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.sessions.SignOut(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RosterCheck looks up an email in the administrator roster.
//
// @Summary      Roster lookup
// @Tags         auth
// @Produce      json
// @Param        email  path      string  true  "Admin email"
// @Success      200    {object}  domain.AdminProfile
// @Failure      404    {object}  map[string]string
// @Router       /admins/{email} [get]
func (h *AuthHandler) RosterCheck(c echo.Context) error {
	profile, err := h.admins.FindAdmin(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func toSessionResponse(res *ports.SessionResult) sessionResponse {
	return sessionResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresAt:    res.Tokens.ExpiresAt,
		Email:        res.Identity.Email,
		IdentityID:   res.Identity.ID,
	}
}
