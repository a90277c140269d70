package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gridsync-io/gridsync-engine/pkg/auth"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext returns the operator attached by the auth middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok
}

// AuthMiddleware gates handlers on a live login session.
type AuthMiddleware struct {
	sessions *auth.Manager
}

// NewAuthMiddleware creates auth middleware over the session manager.
func NewAuthMiddleware(sessions *auth.Manager) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireUser rejects anonymous requests with 401 and attaches the operator
// to the request context.
func (m *AuthMiddleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.sessions.CurrentUser(r)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "login required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	}
}

// RequireAdmin additionally rejects non-admin operators with 403. Mutating
// routes use this; viewers get read-only access.
func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if user.Role != models.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
