package userdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

const keyPrefix = "user/"

// Config holds Badger settings for the user directory.
type Config struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory (tests, ephemeral deployments).
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// GCInterval is the value log GC period. Zero disables GC.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64
}

// DefaultConfig returns defaults for a disk-backed directory at dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// Store is a user directory persisted in Badger.
type Store struct {
	db     *badger.DB
	cfg    Config
	logger logger.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens or creates the directory described by cfg.
func Open(cfg Config, l logger.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("userdb: dir is required")
	}
	if l == nil {
		l = logger.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = &badgerLogger{logger: l}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("userdb: open db: %w", err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: l,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}

	l.Info("user directory opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory)

	return s, nil
}

// Create adds a user with the given password.
// Returns domain.ErrUserConflict if the username is taken.
func (s *Store) Create(_ context.Context, username, password string) (*domain.User, error) {
	u, err := domain.NewUser(username, password)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil, domain.ErrInternalServer.WithCause(err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(username))
		if err == nil {
			return domain.ErrUserConflict.WithDetails(username)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(userKey(username), data)
	})

	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, domain.ErrUserConflict):
		return nil, err
	case errors.Is(err, badger.ErrConflict):
		// A concurrent Create committed the same key first.
		return nil, domain.ErrUserConflict.WithDetails(username).WithCause(err)
	default:
		return nil, domain.ErrStorageError.WithCause(err)
	}
}

// FindByUsername returns the user named username.
func (s *Store) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	var u domain.User

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		})
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return &u, nil
}

// Verify checks password against a stored hash.
func (s *Store) Verify(password, passwordHash string) bool {
	return domain.VerifyPassword(password, passwordHash)
}

// Delete removes a user. It reports whether the user existed.
func (s *Store) Delete(_ context.Context, username string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(userKey(username))
	})
	if err != nil {
		return false, domain.ErrStorageError.WithCause(err)
	}
	return existed, nil
}

// List returns all usernames in ascending order.
func (s *Store) List(_ context.Context) ([]string, error) {
	var names []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return names, nil
}

// Close stops the GC loop and closes the database.
func (s *Store) Close() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("userdb: close db: %w", err)
	}
	s.logger.Info("user directory closed")
	return nil
}

// gcLoop runs periodic value log garbage collection.
func (s *Store) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runGC()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) runGC() {
	rounds := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Error("user directory gc failed", "error", err)
			}
			break
		}
		rounds++
	}
	if rounds > 0 {
		s.logger.Debug("user directory gc completed", "rounds", rounds)
	}
}

func userKey(username string) []byte {
	return []byte(keyPrefix + username)
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
