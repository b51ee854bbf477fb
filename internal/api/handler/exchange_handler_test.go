package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

type stubExchangeService struct {
	result *ports.ExchangeResult
	err    error
}

func (s *stubExchangeService) Exchange(ctx context.Context, username, loginToken string) (*ports.ExchangeResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func postExchange(t *testing.T, h *ExchangeHandler, body string) (*httptest.ResponseRecorder, exchangeResponse) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/functions/cartorio-login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Exchange(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var out exchangeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, out
}

func TestExchangeHandlerSuccessPayload(t *testing.T) {
	h := NewExchangeHandler(&stubExchangeService{result: &ports.ExchangeResult{
		User: &domain.TenantUser{
			ID:         "user-1",
			CartorioID: "cart-1",
			Username:   "maria",
		},
		CartorioNome: "1º Ofício de Notas",
		Tokens: ports.TokenPair{
			AccessToken:  "signed-jwt",
			RefreshToken: "refresh-1",
		},
	}}, zerolog.Nop())

	rec, out := postExchange(t, h, `{"username":"maria","login_token":"CART-ABCD-12345678"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !out.Success {
		t.Fatal("success = false")
	}
	if out.User == nil || out.User.CartorioNome != "1º Ofício de Notas" {
		t.Errorf("user = %+v", out.User)
	}
	if out.AccessToken != "signed-jwt" || out.RefreshToken != "refresh-1" {
		t.Errorf("tokens = %q / %q", out.AccessToken, out.RefreshToken)
	}
}

func TestExchangeHandlerInvalidCredentialsMessage(t *testing.T) {
	h := NewExchangeHandler(&stubExchangeService{err: domain.ErrInvalidCredentials}, zerolog.Nop())

	rec, out := postExchange(t, h, `{"username":"maria","login_token":"CART-DEAD-00000000"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if out.Success {
		t.Error("success = true on failure")
	}
	if out.Message != "credenciais inválidas" {
		t.Errorf("message = %q", out.Message)
	}
}

func TestExchangeHandlerInactiveTenantMessage(t *testing.T) {
	h := NewExchangeHandler(&stubExchangeService{err: domain.ErrTenantInactive}, zerolog.Nop())

	rec, out := postExchange(t, h, `{"username":"demo","login_token":"CART-123-abc"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	// The exact message is contractual: clients match it to distinguish an
	// inactive cartorio from bad credentials.
	if out.Message != "Cartório associado inativo." {
		t.Errorf("message = %q", out.Message)
	}
}

func TestExchangeHandlerInternalErrorMessage(t *testing.T) {
	h := NewExchangeHandler(&stubExchangeService{err: context.DeadlineExceeded}, zerolog.Nop())

	rec, out := postExchange(t, h, `{"username":"maria","login_token":"CART-ABCD-12345678"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if out.Success || out.Message != "erro interno do servidor" {
		t.Errorf("response = %+v", out)
	}
}
