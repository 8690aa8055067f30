package auth

import (
	"context"

	"github.com/goliatone/go-auth-gate/middleware/jwtware"
)

// Claims aliases the middleware claims so listeners can be written against
// this package alone.
type Claims = jwtware.Claims

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores a verified Principal in the standard context
// so handlers can read it with PrincipalFromContext.
func ContextEnricherAdapter(c context.Context, claims jwtware.Claims) context.Context {
	principal, ok := claims.(*Principal)
	if !ok || principal == nil {
		return c
	}
	return WithPrincipal(c, principal)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	for _, l := range listeners {
		if l != nil {
			cfg.ValidationListeners = append(cfg.ValidationListeners, l)
		}
	}
}
