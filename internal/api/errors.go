package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/domain"
	"github.com/phrazzld/mediamatch-api/internal/service"
	"github.com/phrazzld/mediamatch-api/internal/service/auth"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized

	// Quota
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusTooManyRequests

	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, ErrDownloadNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, shared.ErrInvalidRequestBody):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrServiceUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "API key required"
	case errors.Is(err, auth.ErrInvalidCredential):
		return "Invalid API key"

	case errors.Is(err, service.ErrQuotaExceeded):
		return "Rate limit exceeded"

	case errors.Is(err, service.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, ErrDownloadNotFound):
		return "File not found"

	case errors.Is(err, domain.ErrEmptyText):
		return "Search text cannot be empty"
	case errors.Is(err, domain.ErrInvalidMatchCount):
		return fmt.Sprintf("match_count must be between 1 and %d", domain.MaxMatchCount)
	case errors.Is(err, domain.ErrInvalidThreshold):
		return "match_threshold must be between 0 and 1"
	case errors.Is(err, ErrInvalidTaskID):
		return "Invalid task ID"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, domain.ErrValidation):
		return "Invalid search request"
	case errors.Is(err, shared.ErrInvalidRequestBody):
		return "Invalid request format"

	case errors.Is(err, service.ErrServiceUnavailable):
		return "Service temporarily unavailable, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallback replaces the generic message for unmapped (500) errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe.Field()), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
