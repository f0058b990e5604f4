package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/egbay/book-collection/internal/core/domain"
	"github.com/egbay/book-collection/internal/core/ports/driving"
)

// Context keys
type contextKey string

const authContextKey contextKey = "auth_context"

// AuthMiddleware attaches the authorization guard to an http.Handler chain.
// Routing itself belongs to the host application; this is only the guard's
// inbound attachment point.
type AuthMiddleware struct {
	guard driving.AuthGuard
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(guard driving.AuthGuard) *AuthMiddleware {
	return &AuthMiddleware{guard: guard}
}

// Protect wraps a handler with the two-stage check for the named operation.
// The operation's policy comes from the guard's policy table; undeclared
// operations default to authenticated-only.
func (m *AuthMiddleware) Protect(operation string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx, err := m.guard.Authorize(r.Context(), operation, extractBearerToken(r))
		if err != nil {
			writeGuardError(w, err)
			return
		}

		// Public operations have no identity to attach
		if authCtx == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthContext retrieves the auth context from request context
func GetAuthContext(ctx context.Context) *domain.AuthContext {
	if ctx == nil {
		return nil
	}
	authCtx, ok := ctx.Value(authContextKey).(*domain.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// writeGuardError maps guard failures onto status codes. Authentication
// failures stay 401 regardless of root cause; only expiry gets its own
// message so clients know to refresh rather than re-login.
func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, domain.ErrInternal):
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
