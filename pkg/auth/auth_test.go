package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles:      []string{"admin"},
		Department: "Engineering",
	}
}

func newTestMiddleware(t *testing.T) *Middleware {
	t.Helper()
	verifier, err := NewVerifier(config.AuthConfig{Enabled: true, JWTSecret: testSecret})
	require.NoError(t, err)
	return NewMiddleware(verifier, true, zap.NewNop())
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	verifier, err := NewVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	claims, err := verifier.ValidateToken(signToken(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	user := claims.UserContext()
	assert.Equal(t, "user-1", user.UserID)
	assert.True(t, user.HasRole("admin"))
	assert.Equal(t, "Engineering", user.DepartmentScope)
}

func TestHMACVerifier_RejectsExpiredToken(t *testing.T) {
	verifier, err := NewVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	_, err = verifier.ValidateToken(signToken(t, claims))
	require.Error(t, err)
}

func TestHMACVerifier_RejectsWrongSecret(t *testing.T) {
	verifier, err := NewVerifier(config.AuthConfig{JWTSecret: "other"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(signToken(t, validClaims()))
	require.Error(t, err)
}

func TestNewVerifier_RequiresSecretOrJWKS(t *testing.T) {
	_, err := NewVerifier(config.AuthConfig{Enabled: true})
	require.Error(t, err)
}

func TestMiddleware_RequireAuth(t *testing.T) {
	m := newTestMiddleware(t)

	var got *models.UserContext
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		got = UserContextFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/proposals", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/proposals", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims()))
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "user-1", got.UserID)
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	claims := validClaims()
	claims.Roles = []string{"member"}
	req := httptest.NewRequest(http.MethodGet, "/api/proposals", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_AttachIsOptional(t *testing.T) {
	m := newTestMiddleware(t)

	var got *models.UserContext
	handler := m.Attach(func(w http.ResponseWriter, r *http.Request) {
		got = UserContextFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// Anonymous requests pass through without identity.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/ask", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got)

	// Garbage tokens are rejected rather than silently dropped.
	req := httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	m := NewMiddleware(nil, false, zap.NewNop())
	handler := m.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/proposals", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
