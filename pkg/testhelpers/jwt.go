package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
)

// SignTestJWT creates an HS256-signed token the engine's verifier accepts
// when JWT_SECRET is set to the same secret. Useful for testing auth flows
// without a JWKS endpoint.
func SignTestJWT(secret, sub string, roles []string, department string) (string, error) {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles:      roles,
		Department: department,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// SignTestJWTWithBearer returns the token with a "Bearer " prefix for the
// Authorization header.
func SignTestJWTWithBearer(secret, sub string, roles []string, department string) (string, error) {
	token, err := SignTestJWT(secret, sub, roles, department)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
