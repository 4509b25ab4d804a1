package auth

import (
	"context"

	"librarygql/internal/entity"
)

type userKey struct{}

// UserFrom returns the authenticated caller, or nil for anonymous requests.
func UserFrom(ctx context.Context) *entity.User {
	if v, ok := ctx.Value(userKey{}).(*entity.User); ok {
		return v
	}
	return nil
}

// ContextWithUser returns a new context carrying the caller. A nil user
// leaves ctx unchanged.
func ContextWithUser(ctx context.Context, u *entity.User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, userKey{}, u)
}
