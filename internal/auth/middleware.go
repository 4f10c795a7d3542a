package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/partshelf/partshelf/internal/platform/httpx"
)

// Middleware wires bearer-token authentication helpers for HTTP handlers.
type Middleware struct {
	Verifier *TokenVerifier
	Logger   *slog.Logger
}

// RequireAuth ensures the request carries a valid bearer token and stores the
// identity in the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
			return
		}
		identity, err := m.Verifier.Verify(token)
		if err != nil {
			if m.Logger != nil && !errors.Is(err, ErrTokenExpired) {
				m.Logger.Warn("token rejected", slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		ctx := ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the authenticated identity carries the given role.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
				return
			}
			if identity.Role != role {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
