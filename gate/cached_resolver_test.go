package gate

import (
	"context"
	"testing"
	"time"
)

func TestCachedResolver_CachesProfile(t *testing.T) {
	inner := NewStaticResolver[string]()
	inner.Set("u1", NewStaticProfile("p1", "editor"))
	cached := NewCachedResolver[string](inner, 5*time.Minute)

	p1, err := cached.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Name() != "editor" {
		t.Errorf("expected 'editor', got '%s'", p1.Name())
	}

	inner.Set("u1", NewStaticProfile("p1", "admin"))

	p2, _ := cached.Resolve(context.Background(), "u1")
	if p2.Name() != "editor" {
		t.Errorf("expected cached 'editor', got '%s'", p2.Name())
	}
}

func TestCachedResolver_Invalidate(t *testing.T) {
	inner := NewStaticResolver[string]()
	inner.Set("u1", NewStaticProfile("p1", "editor"))
	inner.Set("u2", NewStaticProfile("p2", "viewer"))
	cached := NewCachedResolver[string](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), "u1")
	_, _ = cached.Resolve(context.Background(), "u2")

	inner.Set("u1", NewStaticProfile("p1", "admin"))
	inner.Set("u2", NewStaticProfile("p2", "admin"))

	cached.Invalidate("u1")
	if p, _ := cached.Resolve(context.Background(), "u1"); p.Name() != "admin" {
		t.Errorf("expected 'admin' after invalidation, got '%s'", p.Name())
	}
	if p, _ := cached.Resolve(context.Background(), "u2"); p.Name() != "viewer" {
		t.Errorf("expected u2 still cached, got '%s'", p.Name())
	}

	cached.InvalidateAll()
	if p, _ := cached.Resolve(context.Background(), "u2"); p.Name() != "admin" {
		t.Errorf("expected 'admin' after InvalidateAll, got '%s'", p.Name())
	}
}

func TestCachedResolver_TTLExpiry(t *testing.T) {
	inner := NewStaticResolver[string]()
	inner.Set("u1", NewStaticProfile("p1", "editor"))
	cached := NewCachedResolver[string](inner, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }

	_, _ = cached.Resolve(context.Background(), "u1")
	inner.Set("u1", NewStaticProfile("p1", "admin"))

	now = now.Add(2 * time.Minute)
	if p, _ := cached.Resolve(context.Background(), "u1"); p.Name() != "admin" {
		t.Errorf("expected 'admin' after TTL expiry, got '%s'", p.Name())
	}
}
