// Package domain defines the core domain models for tokgate.
//
// Domain models are pure value objects without IO dependencies or
// framework coupling. This package contains:
//
//   - Ticket: a single-use reconnection grant with an absolute expiry
//   - User: an account with an Argon2id password hash
//   - Response: the envelope sent to clients after the handshake
//   - Connection identities minted from ULIDs
//   - Errors: domain error codes
package domain
