package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
)

// User constraints.
const (
	MaxUsernameLength = 64
	MinPasswordLength = 1
)

// Argon2 parameters for password hashing.
const (
	// Argon2Memory is the memory parameter in KB (16 MB).
	Argon2Memory uint32 = 16384

	// Argon2Time is the iteration count.
	Argon2Time uint32 = 2

	// Argon2Parallelism is the parallelism factor.
	Argon2Parallelism uint8 = 2

	// Argon2KeyLen is the output hash length in bytes.
	Argon2KeyLen uint32 = 32

	// Argon2SaltLen is the salt length in bytes.
	Argon2SaltLen = 16
)

// User is an account that may authenticate with a password.
type User struct {
	Username string `json:"username"`

	// PasswordHash is the Argon2id hash of the password (never exposed).
	// Format: $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
	PasswordHash string `json:"password_hash"`

	// CreatedAt is the creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"created_at"`
}

// NewUser creates a user with a freshly salted password hash.
func NewUser(username, password string) (*User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, ErrInternalServer.WithCause(err)
	}
	return &User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UnixMilli(),
	}, nil
}

// ValidateCredentials checks username and password shape.
func ValidateCredentials(username, password string) error {
	if username == "" {
		return ErrUserValidation.WithDetails("username is required")
	}
	if len(username) > MaxUsernameLength {
		return ErrUserValidation.WithDetails(fmt.Sprintf("username exceeds %d characters", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return ErrUserValidation.WithDetails("password is required")
	}
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return VerifyPassword(password, u.PasswordHash)
}

// HashPassword computes an Argon2id hash of password with a random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks password against an encoded Argon2id hash.
// Parameters are read from the encoded hash so older hashes keep verifying
// after the defaults change.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
