package userdb

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true}, logger.Discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_BasicOperations(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	t.Run("Create and Find", func(t *testing.T) {
		if _, err := s.Create(ctx, "bob", "hunter2"); err != nil {
			t.Fatal(err)
		}
		u, err := s.FindByUsername(ctx, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if u.Username != "bob" {
			t.Errorf("Username = %q", u.Username)
		}
		if !s.Verify("hunter2", u.PasswordHash) {
			t.Error("Verify(correct) = false")
		}
		if s.Verify("nope", u.PasswordHash) {
			t.Error("Verify(wrong) = true")
		}
	})

	t.Run("Find missing", func(t *testing.T) {
		_, err := s.FindByUsername(ctx, "nobody")
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("err = %v, want %v", err, domain.ErrUserNotFound)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := s.Create(ctx, "bob", "other")
		if !errors.Is(err, domain.ErrUserConflict) {
			t.Errorf("err = %v, want %v", err, domain.ErrUserConflict)
		}
		u, _ := s.FindByUsername(ctx, "bob")
		if !s.Verify("hunter2", u.PasswordHash) {
			t.Error("duplicate Create overwrote the stored password")
		}
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := s.Create(ctx, "", "pw")
		if !errors.Is(err, domain.ErrUserValidation) {
			t.Errorf("err = %v, want %v", err, domain.ErrUserValidation)
		}
	})

	t.Run("List and Delete", func(t *testing.T) {
		s.Create(ctx, "amy", "pw")
		s.Create(ctx, "cat", "pw")

		names, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"amy", "bob", "cat"}
		if len(names) != len(want) {
			t.Fatalf("List = %v, want %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Fatalf("List = %v, want %v", names, want)
			}
		}

		if ok, err := s.Delete(ctx, "amy"); err != nil || !ok {
			t.Errorf("Delete(amy) = (%v, %v)", ok, err)
		}
		if ok, _ := s.Delete(ctx, "amy"); ok {
			t.Error("second Delete(amy) = true")
		}
	})
}

func TestStore_ConcurrentCreate(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, "race", "pw")
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrUserConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	s, err := Open(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "bob", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	u, err := s.FindByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("user lost across reopen: %v", err)
	}
	if !s.Verify("hunter2", u.PasswordHash) {
		t.Error("password hash lost across reopen")
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(Config{}, logger.Discard()); err == nil {
		t.Error("Open without dir should fail")
	}
}
