package errors

import (
	"errors"
	"fmt"
)

// Common error types for the media-scan console
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmptyProfile       = errors.New("empty user profile")
	ErrMissingInput       = errors.New("identifier and secret are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrSecretMismatch     = errors.New("secrets do not match")

	// Transport errors (network unreachable, timeout)
	ErrTransport = errors.New("auth service unreachable")

	// Session errors
	ErrSuperseded       = errors.New("superseded by a newer session operation")
	ErrStoreUnavailable = errors.New("credential store unavailable")
	ErrInProgress       = errors.New("authentication already in progress")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
