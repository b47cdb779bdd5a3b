package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-master-service/internal/domain"
)

func newTestCache(t *testing.T) (*TTLCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTTLCache(client), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	if err := c.Set(ctx, "user_dashboard_u1", []byte(`{"ok":true}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("quizmaster:view:user_dashboard_u1") {
		t.Fatalf("expected namespaced redis key")
	}

	value, ok, err := c.Get(ctx, "user_dashboard_u1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(value) != `{"ok":true}` {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_ = c.Set(ctx, "k", []byte("v"), 30*time.Second)
	mr.FastForward(30 * time.Second)

	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss after ttl, ok=%v err=%v", ok, err)
	}
}

func TestRedisCacheClearAllOnlyTouchesNamespace(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)
	mr.Set("unrelated", "keep")

	n, err := c.ClearAll(ctx)
	if err != nil {
		t.Fatalf("clearAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 cleared, got %d", n)
	}
	if !mr.Exists("unrelated") {
		t.Fatalf("clearAll must not touch keys outside the namespace")
	}
}

func TestRedisCacheRejectsEmptyKey(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if err := c.Set(ctx, "", nil, time.Minute); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, _, err := c.Get(ctx, ""); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
