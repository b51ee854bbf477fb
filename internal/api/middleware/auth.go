package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// Context keys set by the auth middlewares.
const (
	CtxIdentityID   = "identity_id"
	CtxKind         = "kind"
	CtxEmail        = "email"
	CtxUsername     = "username"
	CtxUserID       = "user_id"
	CtxCartorioID   = "cartorio_id"
	CtxCartorioNome = "cartorio_nome"
)

// Auth validates the bearer JWT and injects claims into context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := parseSessionToken(parts[1], jwtSecret)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			injectClaims(c, claims)
			return next(c)
		}
	}
}

// AdminOnly gates a route to backend identities of kind admin whose email is
// present in the administrator roster. A valid admin-kind token without a
// roster entry is rejected — never left half-authenticated.
func AdminOnly(admins ports.AdminService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			kind, _ := c.Get(CtxKind).(string)
			if kind != string(domain.KindAdmin) {
				return echo.NewHTTPError(http.StatusForbidden, "acesso negado")
			}

			email, _ := c.Get(CtxEmail).(string)
			isAdmin, err := admins.IsAdmin(c.Request().Context(), email)
			if err != nil {
				return err
			}
			if !isAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "acesso negado")
			}
			return next(c)
		}
	}
}

// TenantSession validates the signed session token carried in the
// X-Session-Token header by tenant-scoped function endpoints. An expired
// token yields a distinct "token expired" message the client detects to
// force logout.
func TenantSession(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get("X-Session-Token")
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}

			claims, err := parseSessionToken(raw, jwtSecret)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}
			if kind, _ := claims["kind"].(string); kind != string(domain.KindTenant) {
				return echo.NewHTTPError(http.StatusUnauthorized, "not a tenant session")
			}
			if cartorioID, _ := claims["cartorio_id"].(string); cartorioID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing cartorio identity")
			}

			injectClaims(c, claims)
			return next(c)
		}
	}
}

func parseSessionToken(raw, secret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

func injectClaims(c echo.Context, claims jwt.MapClaims) {
	c.Set(CtxIdentityID, claims["sub"])
	c.Set(CtxKind, claims["kind"])
	c.Set(CtxEmail, claims["email"])
	c.Set(CtxUsername, claims["username"])
	c.Set(CtxUserID, claims["user_id"])
	c.Set(CtxCartorioID, claims["cartorio_id"])
	c.Set(CtxCartorioNome, claims["cartorio_nome"])
}
