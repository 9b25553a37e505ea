// Package mcpauth provides MCP-specific authentication middleware.
// It wraps the core token verifier with RFC 6750 Bearer token error responses.
package mcpauth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
)

// Middleware provides MCP-specific authentication middleware.
// Unlike the general auth middleware, this returns RFC 6750 WWW-Authenticate
// headers for OAuth 2.0 Bearer token authentication errors.
type Middleware struct {
	verifier auth.Verifier
	enabled  bool
	logger   *zap.Logger
}

// NewMiddleware creates a new MCP auth middleware. When enabled is false,
// requests pass through anonymous.
func NewMiddleware(verifier auth.Verifier, enabled bool, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		enabled:  enabled,
		logger:   logger.Named("mcp-auth"),
	}
}

// Wrap validates the bearer token and injects the caller identity into the
// request context. Returns RFC 6750 WWW-Authenticate headers on failures.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			m.logger.Debug("mcp auth failed: missing token", zap.String("path", r.URL.Path))
			m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_request", "Missing bearer token")
			return
		}

		claims, err := m.verifier.ValidateToken(token)
		if err != nil {
			m.logger.Debug("mcp auth failed: invalid token",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is invalid or expired")
			return
		}

		ctx := auth.WithUserContext(r.Context(), claims.UserContext())
		next.ServeHTTP(w, r.WithContext(ctx))
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

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description string) {
	headerValue := `Bearer error="` + errorCode + `", error_description="` + description + `"`
	w.Header().Set("WWW-Authenticate", headerValue)
	w.WriteHeader(status)
}
