package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/api/metrics"
	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// ExchangeHandler implements the trusted tenant-login function. Its wire
// format is fixed: clients parse the success flag and message directly, so
// failures here bypass the generic error envelope.
type ExchangeHandler struct {
	exchange ports.ExchangeService
	log      zerolog.Logger
}

func NewExchangeHandler(exchange ports.ExchangeService, log zerolog.Logger) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchange, log: log}
}

type exchangeRequest struct {
	Username   string `json:"username" validate:"required"`
	LoginToken string `json:"login_token" validate:"required"`
}

type exchangeUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	CartorioID   string `json:"cartorio_id"`
	CartorioNome string `json:"cartorio_nome"`
}

type exchangeResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	User         *exchangeUser `json:"user,omitempty"`
	AccessToken  string        `json:"access_token,omitempty"`
	RefreshToken string        `json:"refresh_token,omitempty"`
}

// Exchange swaps a (username, login token) pair for a signed session.
//
// @Summary      Tenant login exchange
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        body  body      exchangeRequest  true  "Tenant credentials"
// @Success      200   {object}  exchangeResponse
// @Failure      401   {object}  exchangeResponse
// @Failure      500   {object}  exchangeResponse
// @Router       /functions/cartorio-login [post]
func (h *ExchangeHandler) Exchange(c echo.Context) error {
	var req exchangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, exchangeResponse{Success: false, Message: "credenciais inválidas"})
	}

	res, err := h.exchange.Exchange(c.Request().Context(), req.Username, req.LoginToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("tenant", "invalid_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, exchangeResponse{Success: false, Message: "credenciais inválidas"})
		case errors.Is(err, domain.ErrTenantInactive):
			metrics.LoginsTotal.WithLabelValues("tenant", "tenant_inactive").Inc()
			return c.JSON(http.StatusUnauthorized, exchangeResponse{Success: false, Message: "Cartório associado inativo."})
		default:
			metrics.LoginsTotal.WithLabelValues("tenant", "error").Inc()
			h.log.Error().Err(err).Str("username", req.Username).Msg("tenant login exchange failed")
			return c.JSON(http.StatusInternalServerError, exchangeResponse{Success: false, Message: "erro interno do servidor"})
		}
	}

	metrics.LoginsTotal.WithLabelValues("tenant", "success").Inc()
	return c.JSON(http.StatusOK, exchangeResponse{
		Success: true,
		User: &exchangeUser{
			ID:           res.User.ID,
			Username:     res.User.Username,
			Email:        res.User.Email,
			CartorioID:   res.User.CartorioID,
			CartorioNome: res.CartorioNome,
		},
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}
