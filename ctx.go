package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// DefaultContextKey is the fiber Locals key holding the request principal
const DefaultContextKey = "user"

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithPrincipal sets the Principal in the given context
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, principal)
}

// PrincipalFromContext finds the principal in the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	return raw, ok && raw != nil
}

// PrincipalFromFiber extracts the principal stored by the access middleware
// under key. An empty key means DefaultContextKey.
func PrincipalFromFiber(c *fiber.Ctx, key string) (*Principal, error) {
	if key == "" {
		key = DefaultContextKey
	}

	if principal, ok := c.Locals(key).(*Principal); ok && principal != nil {
		return principal, nil
	}

	if principal, ok := PrincipalFromContext(c.UserContext()); ok {
		return principal, nil
	}

	return nil, ErrUnableToFindPrincipal
}
