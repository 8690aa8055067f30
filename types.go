package auth

import (
	"context"
	"log/slog"
)

// Logger is the logging contract used across the package. Arguments after
// msg are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated store record
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetContextKey() string
	GetAuthScheme() string
	GetPasswordScheme() string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, secret string) (Identity, error)
}

// TokenIssuer signs tokens for a subject
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}

// TokenVerifier validates a raw token and returns the principal it carries.
type TokenVerifier interface {
	Verify(raw string) (*Principal, error)
}

// Authenticator holds methods to deal with credential login
type Authenticator interface {
	Authenticate(ctx context.Context, credential Credential) (*LoginResult, error)
}

// UserDirectory is the read side of the credential store exposed over HTTP
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

type defLogger struct {
	l *slog.Logger
}

func newDefLogger(component string) defLogger {
	return defLogger{l: slog.Default().With("component", component)}
}

func (d defLogger) Debug(msg string, args ...any) {
	d.l.Debug(msg, args...)
}

func (d defLogger) Info(msg string, args ...any) {
	d.l.Info(msg, args...)
}

func (d defLogger) Warn(msg string, args ...any) {
	d.l.Warn(msg, args...)
}

func (d defLogger) Error(msg string, args ...any) {
	d.l.Error(msg, args...)
}
