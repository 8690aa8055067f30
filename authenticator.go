package auth

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Credential is a login attempt. It is never persisted.
type Credential struct {
	Identifier string
	Secret     string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	SubjectID   string
	DisplayName string
	Token       string
}

// Auther verifies credentials against an IdentityProvider and issues tokens.
type Auther struct {
	provider     IdentityProvider
	tokens       TokenIssuer
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// AutherOption configures an Auther
type AutherOption func(*Auther)

// WithLogger sets the logger
func WithLogger(logger Logger) AutherOption {
	return func(a *Auther) {
		if logger != nil {
			a.logger = componentLogger(logger, "auth.authenticator")
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) AutherOption {
	return func(a *Auther) {
		a.activitySink = normalizeActivitySink(sink)
	}
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokens TokenIssuer, opts ...AutherOption) *Auther {
	a := &Auther{
		provider:     provider,
		tokens:       tokens,
		logger:       newDefLogger("auth.authenticator"),
		activitySink: noopActivitySink{},
		now:          time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Authenticate verifies credential and returns a signed token for the
// matching identity. An unknown identifier and a wrong secret both return
// ErrInvalidCredentials. Store and signing failures are internal.
func (a *Auther) Authenticate(ctx context.Context, credential Credential) (*LoginResult, error) {
	identifier := strings.TrimSpace(credential.Identifier)
	if identifier == "" || credential.Secret == "" {
		return nil, ErrMissingCredentials
	}

	identity, err := a.provider.VerifyIdentity(ctx, identifier, credential.Secret)
	if err != nil {
		if OutcomeOf(err) == OutcomeInternal {
			a.logger.Error("login verify identity error", "error", err)
		} else {
			a.logger.Debug("login rejected", "error", err)
		}
		a.emit(ctx, ActivityEventLoginFailure, "", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() || identity.ID() == "" {
		a.logger.Error("login identity is nil or zero value")
		a.emit(ctx, ActivityEventLoginFailure, "", ErrIdentityNotFound)
		return nil, fmt.Errorf("%w: %w", ErrInternal, ErrIdentityNotFound)
	}

	token, err := a.tokens.Issue(identity.ID())
	if err != nil {
		a.logger.Error("login token issue error", "error", err)
		a.emit(ctx, ActivityEventLoginFailure, identity.ID(), err)
		if !errors.Is(err, ErrInternal) {
			err = fmt.Errorf("%w: %w", ErrInternal, err)
		}
		return nil, err
	}

	a.emit(ctx, ActivityEventLoginSuccess, identity.ID(), nil)

	return &LoginResult{
		SubjectID:   identity.ID(),
		DisplayName: identity.DisplayName(),
		Token:       token,
	}, nil
}

func (a *Auther) emit(ctx context.Context, eventType ActivityEventType, subjectID string, cause error) {
	event := ActivityEvent{
		EventType:  eventType,
		SubjectID:  subjectID,
		Outcome:    OutcomeOf(cause),
		Metadata:   map[string]any{},
		OccurredAt: a.now(),
	}

	// the identifier is never recorded for failed attempts
	if cause != nil {
		event.Metadata["error"] = cause.Error()
	}

	if err := normalizeActivitySink(a.activitySink).Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error", "error", err)
	}
}
