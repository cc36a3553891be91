package usercontext

import (
	"context"
	"strings"
)

// UserContextKey is the request context key for the authenticated user.
type UserContextKey struct{}

// User identifies the authenticated caller as reported by the identity provider.
type User struct {
	ID    string
	Email string
}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, UserContextKey{}, user)
}

// UserFromContext returns the authenticated user from context, if set.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	value := ctx.Value(UserContextKey{})
	if value == nil {
		return User{}, false
	}
	user, ok := value.(User)
	if !ok || strings.TrimSpace(user.ID) == "" {
		return User{}, false
	}
	return user, true
}

// UserIDFromContext returns the authenticated user ID from context, if set.
func UserIDFromContext(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.ID, true
}
