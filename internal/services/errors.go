// Package services defines the business logic of the credential store.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the controller and handler layers.
package services

import "errors"

// Outcome classes. Specific validation errors wrap ErrValidation so callers
// can branch on the class with errors.Is.
var (
	// ErrAlreadyExists is returned by Register when the username is taken.
	// The stored row is left untouched.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrInvalidCredentials is returned by Verify for both an unknown username
	// and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrStoreUnavailable wraps any persistence fault. It is never folded
	// into ErrInvalidCredentials.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrValidation marks input rejected before reaching the store.
	ErrValidation = errors.New("validation failed")
)

// Validation errors.
var (
	ErrEmptyUsername    = &validationError{"username is required"}
	ErrUsernameTooLong  = &validationError{"username must be at most 64 characters"}
	ErrEmptyPassword    = &validationError{"password is required"}
	ErrPasswordMismatch = &validationError{"passwords do not match"}
	ErrPasswordTooShort = &validationError{"password is too short"}
	ErrPasswordTooLong  = &validationError{"password must be at most 72 bytes"}
	ErrSecretKeyFormat  = &validationError{"secret key has an unexpected format"}
)

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

// Is reports ErrValidation as a match for every validation error.
func (e *validationError) Is(target error) bool { return target == ErrValidation }
