package sessioncore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestExchangeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/cartorio-login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req exchangeCallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Username != "maria" {
			t.Errorf("username = %q, want trimmed maria", req.Username)
		}
		_ = json.NewEncoder(w).Encode(exchangeCallResponse{
			Success: true,
			User: &exchangeCallUser{
				ID:           "u1",
				Username:     "maria",
				Email:        "maria@cartorio.com.br",
				CartorioID:   "c1",
				CartorioNome: "1º Ofício de Notas",
			},
			AccessToken:  "signed-jwt",
			RefreshToken: "refresh-1",
		})
	}))
	defer srv.Close()

	client := NewExchangeClient(srv.URL, zerolog.Nop())
	identity, err := client.Exchange(context.Background(), "  maria  ", "CART-ABCD-12345678")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if identity.CartorioNome != "1º Ofício de Notas" {
		t.Errorf("cartorio nome = %q", identity.CartorioNome)
	}
	if identity.SignedSessionToken != "signed-jwt" {
		t.Errorf("session token = %q", identity.SignedSessionToken)
	}
}

func TestExchangeInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(exchangeCallResponse{
			Success: false,
			Message: "credenciais inválidas",
		})
	}))
	defer srv.Close()

	client := NewExchangeClient(srv.URL, zerolog.Nop())
	_, err := client.Exchange(context.Background(), "maria", "CART-DEAD-00000000")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestExchangeInactiveTenantDistinguishedFromBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(exchangeCallResponse{
			Success: false,
			Message: "Cartório associado inativo.",
		})
	}))
	defer srv.Close()

	client := NewExchangeClient(srv.URL, zerolog.Nop())
	_, err := client.Exchange(context.Background(), "demo", "CART-123-abc")
	if !errors.Is(err, ErrTenantInactive) {
		t.Fatalf("err = %v, want tenant inactive", err)
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Message != "Cartório associado inativo." {
		t.Errorf("message = %v, want the server message verbatim", err)
	}
}

func TestExchangeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(exchangeCallResponse{
			Success: false,
			Message: "erro interno do servidor",
		})
	}))
	defer srv.Close()

	client := NewExchangeClient(srv.URL, zerolog.Nop())
	_, err := client.Exchange(context.Background(), "maria", "CART-ABCD-12345678")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want server error", err)
	}
}

func TestExchangeTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewExchangeClient(srv.URL, zerolog.Nop(), WithExchangeTimeout(50*time.Millisecond))
	_, err := client.Exchange(context.Background(), "maria", "CART-ABCD-12345678")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want server error on timeout", err)
	}
}

func TestExchangeUnreachableFunction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed on purpose

	client := NewExchangeClient(srv.URL, zerolog.Nop())
	_, err := client.Exchange(context.Background(), "maria", "CART-ABCD-12345678")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want network error", err)
	}
}
