package auth

import (
	"errors"
	"strings"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrInvalidCredentials is returned for any failed credential match. It does
// not tell an unknown identifier apart from a wrong secret.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrMissingCredentials is returned when identifier or secret are empty
var ErrMissingCredentials = errors.New("missing identifier or secret")

// ErrTokenInvalid wraps every token verification failure
var ErrTokenInvalid = errors.New("token is invalid")

// ErrTokenExpired is returned when the token exp claim has elapsed
var ErrTokenExpired = errors.New("token is expired")

// ErrTokenMalformed is returned when the token cannot be decoded
var ErrTokenMalformed = errors.New("token is malformed")

// ErrSigningKeyRequired signals a missing signing key at startup
var ErrSigningKeyRequired = errors.New("signing key is required")

// ErrSigningKeyTooShort signals a signing key below MinSigningKeyLength
var ErrSigningKeyTooShort = errors.New("signing key is too short")

// ErrIssuerRequired signals a missing server identity at startup
var ErrIssuerRequired = errors.New("issuer is required")

// ErrSubjectRequired is returned when issuing a token for an empty subject
var ErrSubjectRequired = errors.New("subject is required")

// ErrUnknownPasswordScheme is returned for unsupported comparer names
var ErrUnknownPasswordScheme = errors.New("unknown password scheme")

// ErrUnableToFindPrincipal is returned when a context carries no principal
var ErrUnableToFindPrincipal = errors.New("unable to find principal")

// ErrInternal marks store or codec failures that must surface as a generic
// server error.
var ErrInternal = errors.New("internal error")

// Outcome classifies the result of an auth operation.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRejected
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	default:
		return "internal"
	}
}

// OutcomeOf maps an error returned by this package to an Outcome. Anything
// that is not a known rejection is internal.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrTokenInvalid):
		return OutcomeRejected
	default:
		return OutcomeInternal
	}
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) || strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed")
}
