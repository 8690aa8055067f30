package auth

import (
	"context"
	"errors"
	"fmt"
)

// UserStore is a store we can use to retrieve users
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// UserProvider handles users
type UserProvider struct {
	store    UserStore
	comparer SecretComparer
	logger   Logger
}

// UserProviderOption configures a UserProvider
type UserProviderOption func(*UserProvider)

// WithSecretComparer sets how presented secrets are matched against the
// stored value. Defaults to PlaintextComparer.
func WithSecretComparer(c SecretComparer) UserProviderOption {
	return func(u *UserProvider) {
		if c != nil {
			u.comparer = c
		}
	}
}

// WithUserProviderLogger sets the logger
func WithUserProviderLogger(l Logger) UserProviderOption {
	return func(u *UserProvider) {
		if l != nil {
			u.logger = componentLogger(l, "auth.user_provider")
		}
	}
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore, opts ...UserProviderOption) *UserProvider {
	u := &UserProvider{
		store:    store,
		comparer: PlaintextComparer{},
		logger:   newDefLogger("auth.user_provider"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}

	return u
}

// VerifyIdentity will find the user, compare the secret, and return identity.
// An unknown identifier and a wrong secret return the same error.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, secret string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: failed to retrieve user during verification: %v", ErrInternal, err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := u.comparer.Compare(secret, user.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		u.logger.Error("secret comparison failed", "error", err)
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}
