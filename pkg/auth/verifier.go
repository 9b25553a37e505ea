package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
)

// Verifier validates bearer tokens and returns their claims.
type Verifier interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// NewVerifier builds a verifier from the auth configuration: JWKS when a URL
// is configured, HS256 shared secret otherwise.
func NewVerifier(cfg config.AuthConfig) (Verifier, error) {
	if cfg.JWKSURL != "" {
		return newJWKSVerifier(cfg.JWKSURL)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth is enabled but neither jwt_secret nor jwks_url is configured")
	}
	return &hmacVerifier{secret: []byte(cfg.JWTSecret)}, nil
}

// hmacVerifier checks HS256 signatures against a shared secret.
type hmacVerifier struct {
	secret []byte
}

var _ Verifier = (*hmacVerifier)(nil)

func (v *hmacVerifier) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	return claimsOf(token)
}

// jwksVerifier checks signatures against keys fetched from a JWKS endpoint.
type jwksVerifier struct {
	keys keyfunc.Keyfunc
}

var _ Verifier = (*jwksVerifier)(nil)

func newJWKSVerifier(jwksURL string) (*jwksVerifier, error) {
	keys, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client for %s: %w", jwksURL, err)
	}
	return &jwksVerifier{keys: keys}, nil
}

func (v *jwksVerifier) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keys.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	return claimsOf(token)
}

func claimsOf(token *jwt.Token) (*Claims, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
