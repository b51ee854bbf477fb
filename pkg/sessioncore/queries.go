package sessioncore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Catalog mirrors the tenant-scoped catalog payload. HasPermissions is
// false when the cartorio sees the unrestricted catalog.
type Catalog struct {
	Sistemas       []CatalogSystem `json:"sistemas"`
	HasPermissions bool            `json:"has_permissions"`
}

type CatalogSystem struct {
	ID       string           `json:"id"`
	Nome     string           `json:"nome"`
	Ordem    int              `json:"ordem"`
	Products []CatalogProduct `json:"products"`
}

type CatalogProduct struct {
	ID      string          `json:"id"`
	Nome    string          `json:"nome"`
	Ordem   int             `json:"ordem"`
	Lessons []CatalogLesson `json:"lessons"`
}

type CatalogLesson struct {
	ID       string `json:"id"`
	Titulo   string `json:"titulo"`
	VideoURL string `json:"video_url"`
	Ordem    int    `json:"ordem"`
}

// ProgressSummary mirrors the progress-summary payload.
type ProgressSummary struct {
	Products []ProductProgress `json:"products"`
	Systems  []SystemProgress  `json:"systems"`
}

type ProductProgress struct {
	ProductID        string `json:"product_id"`
	SystemID         string `json:"system_id"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	Percent          int    `json:"percent"`
}

type SystemProgress struct {
	SystemID         string `json:"system_id"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	Percent          int    `json:"percent"`
}

// DataClient fetches identity-scoped data. Every call takes the identity
// explicitly: an anonymous identity short-circuits to NotAuthenticated
// without touching the network, and an expired-token rejection reports
// the dead session through OnSessionExpired before returning.
type DataClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	// OnSessionExpired is invoked when the server rejects the session
	// token as expired. The reconciler's HandleSessionExpired is the
	// intended target. May be nil.
	OnSessionExpired func(ctx context.Context)
}

// DataOption customises a DataClient.
type DataOption func(*DataClient)

// WithDataHTTPClient overrides the underlying HTTP client.
func WithDataHTTPClient(hc *http.Client) DataOption {
	return func(c *DataClient) { c.http = hc }
}

func NewDataClient(baseURL string, log zerolog.Logger, opts ...DataOption) *DataClient {
	c := &DataClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCatalog returns the catalog scoped to the identity's grants.
// Admins read the unfiltered administrative view instead.
func (c *DataClient) FetchCatalog(ctx context.Context, identity Identity) (*Catalog, error) {
	if identity.IsAdmin() {
		var sistemas []CatalogSystem
		if err := c.get(ctx, identity, "/catalog", &sistemas); err != nil {
			return nil, err
		}
		return &Catalog{Sistemas: sistemas}, nil
	}

	var catalog Catalog
	if err := c.get(ctx, identity, "/functions/catalog", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// FetchProgressSummary returns the identity's completion counters.
// Progress is tracked per tenant user; admins have none.
func (c *DataClient) FetchProgressSummary(ctx context.Context, identity Identity) (*ProgressSummary, error) {
	if identity.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	if !identity.IsTenant() {
		return nil, newAuthError(KindAccessDenied, "progress is tenant-only", nil)
	}

	var summary ProgressSummary
	if err := c.get(ctx, identity, "/functions/progress/summary", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ToggleLesson marks a lesson completed or not for the identity. The
// server applies the change asynchronously; acceptance is the contract.
func (c *DataClient) ToggleLesson(ctx context.Context, identity Identity, lessonID string, completed bool) error {
	if identity.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if !identity.IsTenant() {
		return newAuthError(KindAccessDenied, "lesson progress is tenant-only", nil)
	}

	body, err := json.Marshal(map[string]bool{"completed": completed})
	if err != nil {
		return newAuthError(KindServerError, "encoding progress request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/functions/progress/lessons/"+lessonID, bytes.NewReader(body))
	if err != nil {
		return newAuthError(KindServerError, "building progress request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", identity.Tenant.SignedSessionToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return newAuthError(KindNetworkError, "progress endpoint unreachable", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return c.handleUnauthorized(ctx, resp)
	default:
		return newAuthError(KindServerError, fmt.Sprintf("progress toggle returned %d", resp.StatusCode), nil)
	}
}

func (c *DataClient) get(ctx context.Context, identity Identity, path string, out any) error {
	if identity.IsAnonymous() {
		return ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return newAuthError(KindServerError, "building request", err)
	}
	switch {
	case identity.IsTenant():
		req.Header.Set("X-Session-Token", identity.Tenant.SignedSessionToken)
	case identity.IsAdmin():
		req.Header.Set("Authorization", "Bearer "+identity.Admin.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return newAuthError(KindNetworkError, "data endpoint unreachable", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return newAuthError(KindServerError, "decoding response", err)
		}
		return nil
	case http.StatusUnauthorized:
		return c.handleUnauthorized(ctx, resp)
	case http.StatusForbidden:
		return newAuthError(KindAccessDenied, "Acesso negado.", nil)
	default:
		return newAuthError(KindServerError, fmt.Sprintf("data request returned %d", resp.StatusCode), nil)
	}
}

// handleUnauthorized distinguishes a dead session from a merely rejected
// request. Only the exact expired-token message forces a logout.
func (c *DataClient) handleUnauthorized(ctx context.Context, resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if body.Error == "token expired" {
		if c.OnSessionExpired != nil {
			c.OnSessionExpired(ctx)
		}
		return newAuthError(KindSessionExpired, "token expired", nil)
	}
	return newAuthError(KindInvalidCredentials, body.Error, nil)
}
