package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/pkg/avl"
)

// UserDirectory is an in-memory user directory ordered by username.
type UserDirectory struct {
	mu    sync.RWMutex
	users *avl.Tree[string, *domain.User]
}

// NewUserDirectory creates an empty user directory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		users: avl.New[string, *domain.User](),
	}
}

// Create adds a user with the given password.
// Returns domain.ErrUserConflict if the username is taken.
func (d *UserDirectory) Create(_ context.Context, username, password string) (*domain.User, error) {
	u, err := domain.NewUser(username, password)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.users.Add(username, u); err != nil {
		if errors.Is(err, avl.ErrDuplicateKey) {
			return nil, domain.ErrUserConflict.WithDetails(username).WithCause(err)
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return u, nil
}

// FindByUsername returns the user named username.
func (d *UserDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users.Get(username)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Verify checks password against a stored hash.
func (d *UserDirectory) Verify(password, passwordHash string) bool {
	return domain.VerifyPassword(password, passwordHash)
}

// Delete removes a user. It reports whether the user existed.
func (d *UserDirectory) Delete(_ context.Context, username string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.users.Remove(username), nil
}

// List returns all usernames in ascending order.
func (d *UserDirectory) List(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users.Keys(), nil
}

// Close is a no-op.
func (d *UserDirectory) Close() error {
	return nil
}
