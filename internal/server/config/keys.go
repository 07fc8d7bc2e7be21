package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/yndnr/tokgate/pkg/token"
)

// Keys returns the signing and verification keys described by the
// security section. For HMAC algorithms both are the shared secret.
func (s *SecuritySection) Keys() (signing, verify []byte, err error) {
	alg := token.Algorithm(s.Algorithm)
	if !token.IsAsymmetric(alg) {
		if s.JWTSecret == "" {
			return nil, nil, errors.New("security.jwt_secret is required for " + s.Algorithm)
		}
		secret := []byte(s.JWTSecret)
		return secret, secret, nil
	}

	if s.SigningKeyFile == "" {
		return nil, nil, errors.New("security.signing_key_file is required for " + s.Algorithm)
	}
	signing, err = os.ReadFile(s.SigningKeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read signing key: %w", err)
	}

	verify = signing
	if s.VerifyKeyFile != "" {
		verify, err = os.ReadFile(s.VerifyKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read verify key: %w", err)
		}
	}
	return signing, verify, nil
}
