package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is where the middleware stores the current user in
// router locals
const DefaultContextKey = "user"

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user UserRecord) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (UserRecord, bool) {
	if ctx == nil {
		return UserRecord{}, false
	}
	raw, ok := ctx.Value(userCtxKey).(UserRecord)
	return raw, ok
}

// GetRouterUser extracts the user stored by the auth middleware
func GetRouterUser(ctx router.Context, key string) (UserRecord, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	switch raw := ctx.Locals(key).(type) {
	case UserRecord:
		return raw, true
	case *UserRecord:
		if raw == nil {
			return UserRecord{}, false
		}
		return *raw, true
	default:
		return UserRecord{}, false
	}
}
