package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/platform/logger"
	"github.com/phrazzld/mediamatch-api/internal/redact"
	"github.com/phrazzld/mediamatch-api/internal/service/auth"
)

// APIKeyHeader is the request header carrying the caller's API key.
const APIKeyHeader = "X-API-Key"

// Authenticator resolves an API key to a registered credential.
type Authenticator interface {
	Authenticate(key string) (auth.Credential, error)
}

// AuthMiddleware provides API key authentication for routes.
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
	}
}

// Authenticate validates the X-API-Key header and adds the caller's
// credential to the request context for authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(APIKeyHeader))

		cred, err := m.authenticator.Authenticate(key)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingCredential):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "API key required")
			case errors.Is(err, auth.ErrInvalidCredential):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid API key", err,
					shared.WithElevatedLogLevel())
			default:
				slog.ErrorContext(r.Context(), "failed to authenticate request", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := shared.WithCredential(r.Context(), cred)
		ctx = logger.WithAttrs(ctx, slog.String("caller", cred.Name))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
