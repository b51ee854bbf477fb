package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRefreshTokenStoreRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewRefreshTokenStore(client)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-1", "ident-1", time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}

	id, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if id != "ident-1" {
		t.Errorf("identity = %q, want ident-1", id)
	}
}

func TestRefreshTokenStoreUnknownTokenIsEmpty(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewRefreshTokenStore(client)

	id, err := store.Get(context.Background(), "tok-inexistente")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if id != "" {
		t.Errorf("identity = %q, want empty for unknown token", id)
	}
}

func TestRefreshTokenStoreExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewRefreshTokenStore(client)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-1", "ident-1", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	id, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if id != "" {
		t.Errorf("identity = %q after expiry, want empty", id)
	}
}

func TestRefreshTokenStoreDeleteIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewRefreshTokenStore(client)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-1", "ident-1", time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	id, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if id != "" {
		t.Errorf("identity = %q after delete", id)
	}
}

func TestAdminStatusCacheStates(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewAdminStatusCache(client)
	ctx := context.Background()

	// Uncached email → nil, not false.
	got, err := cache.Get(ctx, "admin@siplan.com.br")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("uncached Get = %v, want nil", *got)
	}

	if err := cache.Set(ctx, "admin@siplan.com.br", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = cache.Get(ctx, "admin@siplan.com.br")
	if err != nil || got == nil || !*got {
		t.Fatalf("Get after Set(true) = %v, %v", got, err)
	}

	if err := cache.Set(ctx, "ninguem@example.com", false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}
	got, err = cache.Get(ctx, "ninguem@example.com")
	if err != nil || got == nil || *got {
		t.Fatalf("Get after Set(false) = %v, %v; want cached false", got, err)
	}
}

func TestAdminStatusCacheInvalidate(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewAdminStatusCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "admin@siplan.com.br", true); err != nil {
		t.Fatal(err)
	}
	if err := cache.Invalidate(ctx, "admin@siplan.com.br"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	got, err := cache.Get(ctx, "admin@siplan.com.br")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get after Invalidate = %v, want nil", *got)
	}
}

func TestCompletionDedupWindow(t *testing.T) {
	client, mr := newTestClient(t)
	dedup := NewCompletionDedup(client)
	ctx := context.Background()

	dup, err := dedup.IsDuplicate(ctx, "cart-1", "user-1", "lesson-1", true)
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Error("fresh toggle reported as duplicate")
	}

	if err := dedup.Mark(ctx, "cart-1", "user-1", "lesson-1", true); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	dup, err = dedup.IsDuplicate(ctx, "cart-1", "user-1", "lesson-1", true)
	if err != nil || !dup {
		t.Errorf("marked toggle: dup=%v err=%v, want duplicate", dup, err)
	}

	// The inverse toggle is a different key.
	dup, err = dedup.IsDuplicate(ctx, "cart-1", "user-1", "lesson-1", false)
	if err != nil || dup {
		t.Errorf("inverse toggle: dup=%v err=%v, want fresh", dup, err)
	}

	// And the mark expires with the window.
	mr.FastForward(time.Minute)
	dup, err = dedup.IsDuplicate(ctx, "cart-1", "user-1", "lesson-1", true)
	if err != nil || dup {
		t.Errorf("after window: dup=%v err=%v, want fresh", dup, err)
	}
}
