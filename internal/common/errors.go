// Package common defines shared constants and sentinel errors used across
// UrbanNest client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Lookup errors.
	ErrNotFound = errors.New("not found")

	// Validation errors. Concrete validation failures wrap ErrValidation.
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid email/password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password is too short")
)
