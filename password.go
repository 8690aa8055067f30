package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password schemes accepted by NewSecretComparer
const (
	PasswordSchemePlaintext = "plaintext"
	PasswordSchemeBcrypt    = "bcrypt"
)

// ErrEmptyPassword is returned when hashing an empty password
var ErrEmptyPassword = errors.New("password must not be empty")

// SecretComparer checks a presented secret against the stored one. A nil
// error means they match.
type SecretComparer interface {
	Compare(presented, stored string) error
}

// SecretComparerFunc adapts a function into a SecretComparer
type SecretComparerFunc func(presented, stored string) error

// Compare implements SecretComparer
func (f SecretComparerFunc) Compare(presented, stored string) error {
	return f(presented, stored)
}

// PlaintextComparer matches secrets stored as plain text. The comparison is
// constant time.
type PlaintextComparer struct{}

// Compare implements SecretComparer
func (PlaintextComparer) Compare(presented, stored string) error {
	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// BcryptComparer matches secrets stored as bcrypt hashes.
type BcryptComparer struct{}

// Compare implements SecretComparer
func (BcryptComparer) Compare(presented, stored string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		// a stored value that is not a hash can never match
		if errors.Is(err, bcrypt.ErrHashTooShort) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// NewSecretComparer returns the comparer for scheme. An empty scheme selects
// plaintext.
func NewSecretComparer(scheme string) (SecretComparer, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", PasswordSchemePlaintext:
		return PlaintextComparer{}, nil
	case PasswordSchemeBcrypt:
		return BcryptComparer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPasswordScheme, scheme)
	}
}

// HashPassword will generate a bcrypt password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}
