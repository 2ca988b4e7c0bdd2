package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/plmware/forecast-api/internal/domain"
)

// UserContext holds the authenticated user for the current request
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Role        domain.Role
	// Token is the raw bearer token, forwarded on upstream calls
	Token string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// TokenFromContext returns the bearer token for the current request, if any
func TokenFromContext(ctx context.Context) string {
	if user, ok := FromContext(ctx); ok {
		return user.Token
	}
	return ""
}

// HasRole checks if the user has the given role
func (u *UserContext) HasRole(role domain.Role) bool {
	return u.Role == role
}

// HasAnyRole checks if the user has any of the given roles
func (u *UserContext) HasAnyRole(roles ...domain.Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsSalesHead reports whether the user holds the top permission tier
func (u *UserContext) IsSalesHead() bool {
	return u.Role == domain.RoleSalesHead
}

// ToDTO converts the user context into its API representation
func (u *UserContext) ToDTO() domain.UserDTO {
	return domain.UserDTO{
		ID:   u.UserID.String(),
		Name: u.DisplayName,
		Role: u.Role,
	}
}
