package auth

import (
	"context"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext stores the verified caller identity on the context.
func WithUserContext(ctx context.Context, user *models.UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserContextFrom retrieves the caller identity, or nil for anonymous
// requests.
func UserContextFrom(ctx context.Context) *models.UserContext {
	user, _ := ctx.Value(userContextKey).(*models.UserContext)
	return user
}
