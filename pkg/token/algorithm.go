package token

import (
	"crypto/rsa"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Algorithm names a signing algorithm as it appears in the token header.
type Algorithm string

// Supported algorithms.
const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
)

// DefaultAlgorithm is used when callers do not pick one.
const DefaultAlgorithm = HS256

// signer computes and checks the encoded signature segment for one
// algorithm. Key material arrives as raw bytes: an HMAC secret, or a PEM
// encoded RSA key.
type signer interface {
	sign(input string, key []byte) (string, error)
	verify(input, sig string, key []byte) bool
}

type hmacSigner struct {
	method *jwt.SigningMethodHMAC
}

func (s hmacSigner) sign(input string, key []byte) (string, error) {
	return s.method.Sign(input, key)
}

func (s hmacSigner) verify(input, sig string, key []byte) bool {
	return s.method.Verify(input, sig, key) == nil
}

type rsaSigner struct {
	method *jwt.SigningMethodRSA
}

func (s rsaSigner) sign(input string, key []byte) (string, error) {
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(key)
	if err != nil {
		return "", err
	}
	return s.method.Sign(input, priv)
}

func (s rsaSigner) verify(input, sig string, key []byte) bool {
	pub, err := parseRSAPublicKey(key)
	if err != nil {
		return false
	}
	return s.method.Verify(input, sig, pub) == nil
}

var signers = map[Algorithm]signer{
	HS256: hmacSigner{method: jwt.SigningMethodHS256},
	HS384: hmacSigner{method: jwt.SigningMethodHS384},
	HS512: hmacSigner{method: jwt.SigningMethodHS512},
	RS256: rsaSigner{method: jwt.SigningMethodRS256},
}

// Supported reports whether alg can be used with Encode and Decode.
func Supported(alg Algorithm) bool {
	_, ok := signers[alg]
	return ok
}

// IsAsymmetric reports whether alg signs with a private key and verifies
// with the matching public key.
func IsAsymmetric(alg Algorithm) bool {
	return alg == RS256
}

// parseRSAPublicKey accepts a public key or certificate PEM, or a private
// key whose public half is used.
func parseRSAPublicKey(key []byte) (*rsa.PublicKey, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM(key)
	if err == nil {
		return pub, nil
	}
	priv, perr := jwt.ParseRSAPrivateKeyFromPEM(key)
	if perr != nil {
		return nil, err
	}
	return &priv.PublicKey, nil
}

// trimPadding drops the trailing '=' some encoders append; the signature
// methods expect unpadded base64url.
func trimPadding(s string) string {
	return strings.TrimRight(s, "=")
}
