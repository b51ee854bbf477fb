package sessioncore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SessionEvent describes a transition of the backend-native session.
type SessionEvent string

const (
	EventSignedIn       SessionEvent = "signed_in"
	EventSignedOut      SessionEvent = "signed_out"
	EventTokenRefreshed SessionEvent = "token_refreshed"
)

// refreshSafetyWindow is how close to expiry a session may get before a
// read triggers a proactive refresh.
const refreshSafetyWindow = 5 * time.Minute

// SessionChangeFunc receives backend session transitions. The session is
// nil for EventSignedOut.
type SessionChangeFunc func(event SessionEvent, session *Session)

// Backend is the surface the reconciler needs from the hosted auth
// backend. *BackendClient is the production implementation.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	CurrentSession(ctx context.Context) (*Session, error)
	RefreshSession(ctx context.Context) (*Session, error)
	SignOut(ctx context.Context) error
	OnSessionChange(fn SessionChangeFunc) (unsubscribe func())
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// BackendClient wraps the hosted backend's session endpoints. It owns the
// in-memory admin session and fans out every transition to subscribers.
type BackendClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	session *Session
	subs    map[int]SessionChangeFunc
	nextSub int
}

// BackendOption customises a BackendClient.
type BackendOption func(*BackendClient)

// WithBackendHTTPClient overrides the underlying HTTP client.
func WithBackendHTTPClient(hc *http.Client) BackendOption {
	return func(c *BackendClient) { c.http = hc }
}

// WithBackendNow overrides the clock, for tests.
func WithBackendNow(now func() time.Time) BackendOption {
	return func(c *BackendClient) { c.now = now }
}

func NewBackendClient(baseURL string, log zerolog.Logger, opts ...BackendOption) *BackendClient {
	c := &BackendClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
		now:     time.Now,
		subs:    make(map[int]SessionChangeFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type backendSessionPayload struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email"`
	IdentityID   string    `json:"identity_id"`
}

func (p backendSessionPayload) toSession() *Session {
	return &Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt,
		Email:        p.Email,
		IdentityID:   p.IdentityID,
	}
}

// SignIn authenticates an administrator and adopts the resulting session.
func (c *BackendClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var payload backendSessionPayload
	status, err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, "", &payload)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
	case status == http.StatusUnauthorized:
		return nil, newAuthError(KindInvalidCredentials, "credenciais inválidas", nil)
	case status >= 500:
		return nil, newAuthError(KindServerError, fmt.Sprintf("sign-in returned %d", status), nil)
	default:
		return nil, newAuthError(KindServerError, fmt.Sprintf("unexpected sign-in status %d", status), nil)
	}

	session := payload.toSession()
	c.setSession(session, EventSignedIn)
	return session, nil
}

// CurrentSession returns the held session, refreshing it first when it is
// inside the expiry safety window. A session that cannot be refreshed is
// dropped and nil is returned.
func (c *BackendClient) CurrentSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, nil
	}
	if !c.needsRefresh(session) {
		return session, nil
	}

	refreshed, err := c.RefreshSession(ctx)
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}

// RefreshSession rotates the held refresh token into a new session pair.
// Any failure clears the local session: a rejected refresh token cannot be
// retried.
func (c *BackendClient) RefreshSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, newAuthError(KindRefreshFailed, "no session to refresh", nil)
	}

	body := map[string]string{"refresh_token": session.RefreshToken}
	var payload backendSessionPayload
	status, err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", body, "", &payload)
	if err != nil {
		c.setSession(nil, EventSignedOut)
		return nil, newAuthError(KindRefreshFailed, "session refresh failed", err)
	}
	if status != http.StatusOK {
		c.setSession(nil, EventSignedOut)
		return nil, newAuthError(KindRefreshFailed, fmt.Sprintf("refresh returned %d", status), nil)
	}

	refreshed := payload.toSession()
	c.setSession(refreshed, EventTokenRefreshed)
	return refreshed, nil
}

// SignOut revokes the held refresh token and drops the session. Calling
// it without a session is a no-op.
func (c *BackendClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	body := map[string]string{"refresh_token": session.RefreshToken}
	if _, err := c.doJSON(ctx, http.MethodPost, "/auth/logout", body, "", nil); err != nil {
		// Local sign-out still proceeds; the server token expires on its own.
		c.log.Warn().Err(err).Msg("remote sign-out failed, clearing local session")
	}
	c.setSession(nil, EventSignedOut)
	return nil
}

// IsAdmin checks the administrator roster for the given email using the
// held session's access token.
func (c *BackendClient) IsAdmin(ctx context.Context, email string) (bool, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	token := ""
	if session != nil {
		token = session.AccessToken
	}

	status, err := c.doJSON(ctx, http.MethodGet, "/admins/"+email, nil, token, nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	case http.StatusUnauthorized:
		return false, newAuthError(KindSessionExpired, "token expired", nil)
	default:
		return false, newAuthError(KindServerError, fmt.Sprintf("roster lookup returned %d", status), nil)
	}
}

// OnSessionChange registers fn for session transitions. The returned
// function removes the registration; calling it more than once is safe.
func (c *BackendClient) OnSessionChange(fn SessionChangeFunc) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *BackendClient) needsRefresh(s *Session) bool {
	return !s.ExpiresAt.IsZero() && c.now().Add(refreshSafetyWindow).After(s.ExpiresAt)
}

func (c *BackendClient) setSession(s *Session, event SessionEvent) {
	c.mu.Lock()
	c.session = s
	fns := make([]SessionChangeFunc, 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, s)
	}
}

// doJSON issues a request and decodes a JSON body into out when out is
// non-nil and the response carries one. Transport errors map to
// KindNetworkError; HTTP statuses are returned for the caller to judge.
func (c *BackendClient) doJSON(ctx context.Context, method, path string, body any, bearer string, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, newAuthError(KindServerError, "encoding request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, newAuthError(KindServerError, "building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, newAuthError(KindNetworkError, "backend unreachable", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, newAuthError(KindServerError, "decoding response", err)
		}
	}
	return resp.StatusCode, nil
}
