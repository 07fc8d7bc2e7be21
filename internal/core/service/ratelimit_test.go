package service

import (
	"testing"
	"time"
)

func TestRateLimiterRegistry(t *testing.T) {
	registry := NewRateLimiterRegistry(1, 2)

	t.Run("get or create", func(t *testing.T) {
		limiter1 := registry.GetOrCreate("10.0.0.1")
		limiter2 := registry.GetOrCreate("10.0.0.1")

		if limiter1 != limiter2 {
			t.Error("Same key should return same limiter")
		}

		limiter3 := registry.GetOrCreate("10.0.0.2")
		if limiter1 == limiter3 {
			t.Error("Different keys should return different limiters")
		}
	})

	t.Run("allow respects burst", func(t *testing.T) {
		if !registry.Allow("burst") || !registry.Allow("burst") {
			t.Fatal("first two events within burst should be allowed")
		}
		if registry.Allow("burst") {
			t.Error("third immediate event should be refused")
		}
		if !registry.Allow("other") {
			t.Error("limiters must be independent per key")
		}
	})

	t.Run("delete", func(t *testing.T) {
		registry.Allow("delete-key")
		registry.Allow("delete-key")
		registry.Delete("delete-key")

		if !registry.Allow("delete-key") {
			t.Error("a deleted key should start with a full bucket")
		}
	})

	t.Run("prune", func(t *testing.T) {
		r := NewRateLimiterRegistry(1, 2)
		r.GetOrCreate("idle")
		r.Allow("busy")

		if n := r.Prune(time.Now()); n != 1 {
			t.Errorf("Prune removed %d, want 1", n)
		}
		if r.Len() != 1 {
			t.Errorf("Len = %d, want 1", r.Len())
		}
		if n := r.Prune(time.Now().Add(time.Hour)); n != 1 {
			t.Errorf("Prune after refill removed %d, want 1", n)
		}
	})

	t.Run("zero burst is clamped", func(t *testing.T) {
		r := NewRateLimiterRegistry(1, 0)
		if !r.Allow("x") {
			t.Error("burst should be clamped to 1")
		}
	})
}
