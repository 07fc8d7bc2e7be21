package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form TG-<AREA>-<NNNN> where the last four digits follow the
// HTTP status family of the condition.
type DomainError struct {
	Code    string // Error code (e.g., "TG-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAuthenticationFailed is the single reason reported to a client whose
	// credentials or ticket were refused. The message is sent verbatim.
	ErrAuthenticationFailed = NewDomainError("TG-AUTH-4010", "Authentication failed")

	// ErrMissingCorrelationID indicates the handshake carried no Z-Uuid.
	ErrMissingCorrelationID = NewDomainError("TG-AUTH-4000", "missing correlation id")

	// ErrOriginNotAllowed indicates the upgrade request came from a
	// disallowed origin.
	ErrOriginNotAllowed = NewDomainError("TG-AUTH-4030", "origin not allowed")

	// ErrHandshakeRateLimited indicates the caller exceeded its handshake rate.
	ErrHandshakeRateLimited = NewDomainError("TG-AUTH-4290", "rate limit exceeded")
)

// ============================================================================
// Ticket Errors (TICK)
// ============================================================================

var (
	// ErrSweeperRunning indicates the expiry sweeper was started twice.
	ErrSweeperRunning = NewDomainError("TG-TICK-4090", "ticket sweeper already running")
)

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrSigningMisconfigured indicates a token could not be signed with the
	// configured key and algorithm.
	ErrSigningMisconfigured = NewDomainError("TG-TOKN-5000", "token signing misconfigured")

	// ErrUnsupportedAlgorithm indicates the configured algorithm is unknown.
	ErrUnsupportedAlgorithm = NewDomainError("TG-TOKN-5001", "unsupported signing algorithm")

	// ErrMissingSigningKey indicates no signing key is configured.
	ErrMissingSigningKey = NewDomainError("TG-TOKN-5002", "signing key not configured")
)

// ============================================================================
// User Errors (USER)
// ============================================================================

var (
	// ErrUserNotFound indicates no user with the given name exists.
	ErrUserNotFound = NewDomainError("TG-USER-4040", "user not found")

	// ErrUserConflict indicates the username is already taken.
	ErrUserConflict = NewDomainError("TG-USER-4090", "username already exists")

	// ErrUserValidation indicates user data validation failed.
	ErrUserValidation = NewDomainError("TG-USER-4001", "user validation failed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("TG-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("TG-SYS-5001", "storage error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("TG-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("TG-SYS-4000", "bad request")

	// ErrAddressNotAllowed indicates the caller address is outside the
	// configured allowlist.
	ErrAddressNotAllowed = NewDomainError("TG-SYS-4030", "address not allowed")

	// ErrTooManyRequests indicates the caller exceeded the HTTP request rate.
	ErrTooManyRequests = NewDomainError("TG-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TG-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("TG-ARG-1002", "missing required argument")
)
