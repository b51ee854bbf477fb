package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshTokenStore holds live refresh tokens in Redis under
// refresh:<token> → identity ID, expiring with the refresh TTL. Rotation is
// a Delete followed by a Save of the new value.
type RefreshTokenStore struct {
	client *redis.Client
}

func NewRefreshTokenStore(client *redis.Client) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

func (s *RefreshTokenStore) Save(ctx context.Context, token, identityID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(token), identityID, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Get returns the identity bound to the token, or "" when the token is
// unknown or expired.
func (s *RefreshTokenStore) Get(ctx context.Context, token string) (string, error) {
	id, err := s.client.Get(ctx, refreshKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return id, nil
}

// Delete removes the token. Deleting an unknown token is a no-op.
func (s *RefreshTokenStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, refreshKey(token)).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func refreshKey(token string) string {
	return "refresh:" + token
}

const adminStatusTTL = time.Hour

// AdminStatusCache memoises roster membership per email under
// adminstatus:<email> → "1"/"0".
type AdminStatusCache struct {
	client *redis.Client
}

func NewAdminStatusCache(client *redis.Client) *AdminStatusCache {
	return &AdminStatusCache{client: client}
}

// Get returns nil when the email has not been cached.
func (c *AdminStatusCache) Get(ctx context.Context, email string) (*bool, error) {
	v, err := c.client.Get(ctx, adminStatusKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("admin-status get: %w", err)
	}
	isAdmin := v == "1"
	return &isAdmin, nil
}

func (c *AdminStatusCache) Set(ctx context.Context, email string, isAdmin bool) error {
	v := "0"
	if isAdmin {
		v = "1"
	}
	if err := c.client.Set(ctx, adminStatusKey(email), v, adminStatusTTL).Err(); err != nil {
		return fmt.Errorf("admin-status set: %w", err)
	}
	return nil
}

func (c *AdminStatusCache) Invalidate(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, adminStatusKey(email)).Err(); err != nil {
		return fmt.Errorf("admin-status invalidate: %w", err)
	}
	return nil
}

func adminStatusKey(email string) string {
	return "adminstatus:" + email
}
