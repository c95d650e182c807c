// Package service provides the application-level operations of the media
// search API: admitting search requests and reporting task status.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrQuotaExceeded indicates the caller has used up its searches for the
	// current quota window.
	// API layer should map this to HTTP 429 Too Many Requests.
	ErrQuotaExceeded = errors.New("rate limit exceeded")

	// ErrTaskNotFound indicates that the task does not exist or has been swept.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrServiceUnavailable indicates the service cannot accept work right now,
	// for example because the task queue is full.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
