// Package service provides domain services for tokgate.
//
// Services contain the connection authentication logic and define
// interfaces for their storage and transport dependencies, allowing for
// dependency injection and testability.
//
// This package contains:
//
//   - Gate: the handshake state machine. A connection starts awaiting
//     credentials and ends registered or rejected. Password credentials are
//     checked against a UserDirectory; a reconnection ticket is decoded and
//     redeemed against a TicketStore. Closing a registered connection files
//     a new ticket for its identity.
//   - RateLimiterRegistry: per-address handshake rate limiting
//   - SeedStubUsers: development account seeding
package service
