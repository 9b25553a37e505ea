package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware guards HTTP routes with bearer-token validation.
type Middleware struct {
	verifier Verifier
	enabled  bool
	logger   *zap.Logger
}

// NewMiddleware creates the auth middleware. When enabled is false,
// RequireAuth and RequireAdmin pass everything through unauthenticated.
func NewMiddleware(verifier Verifier, enabled bool, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		enabled:  enabled,
		logger:   logger.Named("auth"),
	}
}

// Attach validates a bearer token when one is present and stores the caller
// identity on the context. Requests without a token pass through anonymous;
// requests with an invalid token are rejected.
func (m *Middleware) Attach(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			next(w, r)
			return
		}

		claims, err := m.verifier.ValidateToken(token)
		if err != nil {
			m.logger.Debug("rejected bearer token", zap.Error(err))
			m.unauthorized(w, "Invalid token")
			return
		}

		next(w, r.WithContext(WithUserContext(r.Context(), claims.UserContext())))
	}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			m.unauthorized(w, "Authentication required")
			return
		}

		claims, err := m.verifier.ValidateToken(token)
		if err != nil {
			m.logger.Debug("rejected bearer token", zap.Error(err))
			m.unauthorized(w, "Invalid token")
			return
		}

		next(w, r.WithContext(WithUserContext(r.Context(), claims.UserContext())))
	}
}

// RequireAdmin rejects requests whose verified caller lacks the admin role.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if m.enabled && !UserContextFrom(r.Context()).HasRole(RoleAdmin) {
			m.forbidden(w, "Admin role required")
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	})
}
