package context

import (
	"context"
)

// Common context keys
type contextKey struct {
	name string
}

var principalKey = contextKey{"principal"}

// Principal is the authenticated admin making a backend request
type Principal struct {
	UserID   uint
	Username string
	Role     string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
