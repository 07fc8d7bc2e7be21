package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedAlgorithm is returned by Encode for an unknown algorithm.
	ErrUnsupportedAlgorithm = errors.New("token: algorithm not supported")

	// ErrMissingKey is returned by Encode when no signing key is supplied.
	ErrMissingKey = errors.New("token: signing key required")
)

// Header is the JSON header of a signed token.
type Header struct {
	Type      string    `json:"typ"`
	Algorithm Algorithm `json:"alg"`
}

// Encode signs payload with key using alg and returns the compact token.
func Encode(payload any, key []byte, alg Algorithm) (string, error) {
	return EncodeWithHeader(Header{Type: "JWT", Algorithm: alg}, payload, key)
}

// EncodeWithHeader is Encode with a caller supplied header. The header's
// Algorithm selects the signing routine; an empty Type defaults to "JWT".
func EncodeWithHeader(header Header, payload any, key []byte) (string, error) {
	if len(key) == 0 {
		return "", ErrMissingKey
	}
	s, ok := signers[header.Algorithm]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, header.Algorithm)
	}
	if header.Type == "" {
		header.Type = "JWT"
	}

	h, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("token: encode header: %w", err)
	}
	p, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("token: encode payload: %w", err)
	}

	signingInput := encodeSegment(h) + "." + encodeSegment(p)
	sig, err := s.sign(signingInput, key)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	return signingInput + "." + sig, nil
}

// Decode verifies tok against key and unmarshals its payload into out.
// It returns false when the token is empty, does not have exactly three
// segments, is not valid base64url/JSON, names an unsupported algorithm,
// or carries a signature that does not verify. Payload fields such as
// expiry are not inspected.
func Decode(tok string, key []byte, out any) bool {
	if tok == "" || len(key) == 0 {
		return false
	}

	segments := strings.Split(tok, ".")
	if len(segments) != 3 {
		return false
	}

	rawHeader, err := decodeSegment(segments[0])
	if err != nil {
		return false
	}
	var header Header
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return false
	}
	s, ok := signers[header.Algorithm]
	if !ok {
		return false
	}

	if !s.verify(segments[0]+"."+segments[1], trimPadding(segments[2]), key) {
		return false
	}

	rawPayload, err := decodeSegment(segments[1])
	if err != nil {
		return false
	}
	if out == nil {
		return json.Valid(rawPayload)
	}
	return json.Unmarshal(rawPayload, out) == nil
}

// DecodeString is Decode for tokens whose payload is a JSON string.
func DecodeString(tok string, key []byte) (string, bool) {
	var s string
	if !Decode(tok, key, &s) {
		return "", false
	}
	return s, true
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// decodeSegment tolerates trailing padding produced by some encoders.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(trimPadding(s))
}
