package auth

import (
	"context"

	"github.com/storycreative/ledger/internal/user"
)

type contextKey struct{}

// ToContext embeds the authenticated user into the request context.
func ToContext(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext retrieves the authenticated user set by the auth middleware.
func FromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(contextKey{}).(user.User)
	return u, ok
}
