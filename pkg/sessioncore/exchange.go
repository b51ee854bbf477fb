package sessioncore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// exchangeTimeout bounds the tenant login round-trip so the login form
// never hangs on a stalled function.
const exchangeTimeout = 8 * time.Second

// Exchanger swaps tenant credentials for a signed session.
type Exchanger interface {
	Exchange(ctx context.Context, username, loginToken string) (*TenantIdentity, error)
}

// ExchangeClient calls the trusted cartorio-login function.
type ExchangeClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// ExchangeOption customises an ExchangeClient.
type ExchangeOption func(*ExchangeClient)

// WithExchangeHTTPClient overrides the underlying HTTP client.
func WithExchangeHTTPClient(hc *http.Client) ExchangeOption {
	return func(c *ExchangeClient) { c.http = hc }
}

// WithExchangeTimeout overrides the per-call deadline.
func WithExchangeTimeout(d time.Duration) ExchangeOption {
	return func(c *ExchangeClient) { c.timeout = d }
}

func NewExchangeClient(baseURL string, log zerolog.Logger, opts ...ExchangeOption) *ExchangeClient {
	c := &ExchangeClient{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: exchangeTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type exchangeCallRequest struct {
	Username   string `json:"username"`
	LoginToken string `json:"login_token"`
}

type exchangeCallUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	CartorioID   string `json:"cartorio_id"`
	CartorioNome string `json:"cartorio_nome"`
}

type exchangeCallResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	User         *exchangeCallUser `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

// Exchange posts the (username, login token) pair to the login function
// and maps its fixed wire format onto the error taxonomy. The username is
// trimmed here as well so a stray space never reaches the wire.
func (c *ExchangeClient) Exchange(ctx context.Context, username, loginToken string) (*TenantIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(exchangeCallRequest{
		Username:   strings.TrimSpace(username),
		LoginToken: strings.TrimSpace(loginToken),
	})
	if err != nil {
		return nil, newAuthError(KindServerError, "encoding exchange request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/cartorio-login", bytes.NewReader(payload))
	if err != nil {
		return nil, newAuthError(KindServerError, "building exchange request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, newAuthError(KindServerError, "login exchange timed out", err)
		}
		return nil, newAuthError(KindNetworkError, "login function unreachable", err)
	}
	defer resp.Body.Close()

	var out exchangeCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, newAuthError(KindServerError, "decoding exchange response", err)
	}

	if !out.Success {
		return nil, c.mapFailure(resp.StatusCode, out.Message)
	}
	if out.User == nil || out.AccessToken == "" {
		return nil, newAuthError(KindServerError, "exchange response missing session", nil)
	}

	return &TenantIdentity{
		UserID:             out.User.ID,
		Username:           out.User.Username,
		Email:              out.User.Email,
		CartorioID:         out.User.CartorioID,
		CartorioNome:       out.User.CartorioNome,
		SignedSessionToken: out.AccessToken,
		RefreshToken:       out.RefreshToken,
	}, nil
}

// mapFailure turns the function's message-based failures into typed
// errors. The inactive-tenant message is the only 401 that must be told
// apart from bad credentials.
func (c *ExchangeClient) mapFailure(status int, message string) *AuthError {
	switch {
	case strings.Contains(strings.ToLower(message), "inativo"):
		return newAuthError(KindTenantInactive, message, nil)
	case status == http.StatusUnauthorized:
		if message == "" {
			message = "credenciais inválidas"
		}
		return newAuthError(KindInvalidCredentials, message, nil)
	case status >= 500:
		return newAuthError(KindServerError, fmt.Sprintf("login function returned %d", status), nil)
	default:
		return newAuthError(KindServerError, message, nil)
	}
}
