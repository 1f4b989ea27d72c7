package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the core services. Handlers translate these
// into problem+json responses; services never retry or swallow them.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrKYCNotVerified         = errors.New("kyc not verified")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientBalance    = errors.New("insufficient token balance")
	ErrInvalidState           = errors.New("invalid state")
	ErrExpired                = errors.New("expired")
	ErrArithmeticOverflow     = errors.New("arithmetic overflow")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrForbidden              = errors.New("forbidden")
)

// NotFound reports a missing entity ("order", "property", ...).
func NotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// KYCNotVerified carries the reason a caller failed the compliance gate.
func KYCNotVerified(reason string) error {
	return fmt.Errorf("%w: %s", ErrKYCNotVerified, reason)
}

// InvalidStateError reports an operation attempted against an entity that is
// not in the state the operation requires.
type InvalidStateError struct {
	Expected string
	Actual   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: expected %s, got %s", e.Expected, e.Actual)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// InvalidState builds an InvalidStateError.
func InvalidState(expected, actual string) error {
	return &InvalidStateError{Expected: expected, Actual: actual}
}
