// Package auth provides JWT bearer validation for the engine's HTTP and MCP
// surfaces. Tokens are verified against an HS256 shared secret or a JWKS
// endpoint; verified claims become the caller's UserContext.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// RoleAdmin grants access to the proposal-administration surface.
const RoleAdmin = "admin"

// Claims is the JWT claims structure the engine accepts. RegisteredClaims
// carries the standard fields (sub, iss, exp); roles and dept scope access
// policy.
type Claims struct {
	jwt.RegisteredClaims
	Roles      []string `json:"roles,omitempty"`
	Department string   `json:"dept,omitempty"`
}

// UserContext converts verified claims into the identity carried through
// the pipeline.
func (c *Claims) UserContext() *models.UserContext {
	return &models.UserContext{
		UserID:          c.Subject,
		Roles:           append([]string(nil), c.Roles...),
		DepartmentScope: c.Department,
	}
}
