// Package common defines the error taxonomy and shared constants used across
// the zkvault server and CLI. Callers should use errors.Is to match these
// values; concrete failures wrap them with fmt.Errorf("...: %w", err).
package common

import "errors"

var (
	// Request-shape errors. The client fixes the request and retries.
	ErrValidation = errors.New("validation error")
	// ErrMalformedProof is raised before any verifier call.
	ErrMalformedProof = wrapKind(ErrValidation, "malformed proof")
	// ErrInvalidSecret reports a secret outside the commitment field.
	ErrInvalidSecret = wrapKind(ErrValidation, "invalid secret")
	// ErrPayloadTooLarge reports an upload over the configured size limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// Access errors.
	ErrAuthDenied   = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Fatal configuration errors, raised at startup.
	ErrMasterKeyMisconfigured = errors.New("master key misconfigured")

	// Server-side failures.
	ErrVerifierUnavailable   = errors.New("verifier unavailable")
	ErrStorageIO             = errors.New("storage I/O failure")
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrInternal              = errors.New("internal error")
)

// ErrMissingMasterKey and ErrInvalidMasterKeyLength both match
// ErrMasterKeyMisconfigured.
var (
	ErrMissingMasterKey       = wrapKind(ErrMasterKeyMisconfigured, "missing master key")
	ErrInvalidMasterKeyLength = wrapKind(ErrMasterKeyMisconfigured, "master key must be exactly 256 bits")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func wrapKind(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
