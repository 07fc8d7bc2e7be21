package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ConnectionIDPrefix is the prefix for connection identities.
const ConnectionIDPrefix = "tgc-"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewConnectionID mints a fresh connection identity.
// Format: tgc-{ulid_lowercase}, 30 characters total.
//
// Identities minted within the same millisecond are strictly increasing.
func NewConnectionID() (string, error) {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return ConnectionIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidConnectionID checks if id is a well-formed connection identity.
func IsValidConnectionID(id string) bool {
	if !strings.HasPrefix(id, ConnectionIDPrefix) {
		return false
	}
	if len(id) != len(ConnectionIDPrefix)+ulid.EncodedSize {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(ConnectionIDPrefix):]))
	return err == nil
}
