// Package common defines shared constants and sentinel errors used across
// client and server layers of RunaVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal          = errors.New("internal error")
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrorPermissionDenied  = errors.New("permission denied")
	ErrorValidation        = errors.New("validation error")
	ErrorDuplicateSecret   = errors.New("secret already exists")
	ErrorIncompleteRecord  = errors.New("secret data is incomplete in the database")
	ErrorInconsistentWrite = errors.New("secret not found after write")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
