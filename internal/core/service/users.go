package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// UserStore is a UserDirectory that can also create accounts.
type UserStore interface {
	UserDirectory
	Create(ctx context.Context, username, password string) (*domain.User, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

// StubUsernames are the development accounts created by SeedStubUsers.
// Each account's password equals its username.
var StubUsernames = []string{"test", "test0", "test1", "test2", "test3"}

// SeedStubUsers creates the development accounts. Accounts that already
// exist are left untouched. Returns the number of accounts created.
func SeedStubUsers(ctx context.Context, store UserStore) (int, error) {
	created := 0
	for _, name := range StubUsernames {
		_, err := store.Create(ctx, name, name)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrUserConflict):
		default:
			return created, fmt.Errorf("seed user %q: %w", name, err)
		}
	}

	if created > 0 {
		logger.L(ctx).Warn("stub users seeded; disable users.seed_stub in production",
			"count", created)
	}
	return created, nil
}
