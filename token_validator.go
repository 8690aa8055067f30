package auth

import "github.com/goliatone/go-auth-gate/middleware/jwtware"

// TokenVerifierFunc adapts a function into a TokenVerifier.
type TokenVerifierFunc func(raw string) (*Principal, error)

// Verify satisfies the TokenVerifier interface.
func (f TokenVerifierFunc) Verify(raw string) (*Principal, error) {
	if f == nil {
		return nil, ErrTokenInvalid
	}
	return f(raw)
}

// MiddlewareValidator exposes a TokenVerifier to the jwtware middleware.
func MiddlewareValidator(verifier TokenVerifier) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.Claims, error) {
		if verifier == nil {
			return nil, ErrTokenInvalid
		}
		principal, err := verifier.Verify(raw)
		if err != nil {
			return nil, err
		}
		// a nil principal would pass as non-nil Claims
		if principal == nil {
			return nil, ErrTokenInvalid
		}
		return principal, nil
	})
}
