// Package token provides signed token encoding and random value generation.
//
// Signed tokens use the compact three-segment form
//
//	base64url(header) "." base64url(payload) "." base64url(signature)
//
// where header and payload are JSON and the signature covers the first two
// segments joined by a dot. The header carries at least {"typ","alg"}.
//
// Supported algorithms:
//
//   - HS256, HS384, HS512: HMAC with SHA-2, key is the shared secret
//   - RS256: RSA PKCS#1 v1.5 with SHA-256, key is a PEM encoded RSA key
//
// Encode fails loudly on misconfiguration (unknown algorithm, missing key)
// since that is a deployment defect. Decode treats its input as untrusted
// and reports failure with a false return, never an error or panic.
package token
