package auth

import "errors"

// Common authentication errors
var (
	// ErrMissingCredential indicates no API key was supplied with the request
	ErrMissingCredential = errors.New("api key is missing")

	// ErrInvalidCredential indicates the API key is not registered
	ErrInvalidCredential = errors.New("invalid api key")

	// ErrDuplicateCredential is returned when the same key is registered twice
	ErrDuplicateCredential = errors.New("duplicate api key")

	// ErrInvalidCredentialsFile indicates the credentials file could not be parsed
	ErrInvalidCredentialsFile = errors.New("invalid credentials file")
)
