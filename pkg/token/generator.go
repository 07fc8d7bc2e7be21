package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultLength is the default random value length in bytes.
const DefaultLength = 32

// Generate returns DefaultLength random bytes, Base64 RawURL encoded.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength returns length random bytes, Base64 RawURL encoded.
// Used for request ids and signing secrets.
func GenerateWithLength(length int) (string, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateBytes returns length bytes read from crypto/rand.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
