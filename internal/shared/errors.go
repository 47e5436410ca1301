package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid occurs when a bearer token is missing, expired or revoked.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrDuplicateNumber indicates a document number collision.
	ErrDuplicateNumber = errors.New("document number already in use")
)
