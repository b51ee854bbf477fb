package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/siplan/siplan-skills/internal/api/middleware"
)

// tenantScope extracts the tenant claims injected by the TenantSession
// middleware and fast-fails before any service call: a structurally valid
// token without a cartorio or user identity is operationally unusable.
func tenantScope(c echo.Context) (cartorioID, userID string, err error) {
	cartorioID, _ = c.Get(middleware.CtxCartorioID).(string)
	if cartorioID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	userID, _ = c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}
	return cartorioID, userID, nil
}
