package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of an access token
const TokenTTL = 15 * time.Minute

// MinSigningKeyLength is the minimum accepted HS256 key length in bytes
const MinSigningKeyLength = 32

// TokenService signs and verifies access tokens with a single HS256 key.
// It holds no mutable state after construction.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
	logger     Logger
}

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithClock injects the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = componentLogger(logger, "auth.token_service")
		}
	}
}

// NewTokenService creates a TokenService from cfg. A missing or short key, or
// a missing issuer, is a startup error.
func NewTokenService(cfg Config, opts ...TokenServiceOption) (*TokenService, error) {
	if cfg == nil {
		return nil, ErrSigningKeyRequired
	}

	key := cfg.GetSigningKey()
	if key == "" {
		return nil, ErrSigningKeyRequired
	}
	if len(key) < MinSigningKeyLength {
		return nil, fmt.Errorf("%w: minimum of %d bytes", ErrSigningKeyTooShort, MinSigningKeyLength)
	}
	if cfg.GetIssuer() == "" {
		return nil, ErrIssuerRequired
	}

	ts := &TokenService{
		signingKey: []byte(key),
		issuer:     cfg.GetIssuer(),
		ttl:        TokenTTL,
		now:        time.Now,
		logger:     newDefLogger("auth.token_service"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// Issuer returns the configured server identity
func (ts *TokenService) Issuer() string {
	return ts.issuer
}

// Issue creates a signed token for subjectID valid for TokenTTL.
func (ts *TokenService) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", ErrSubjectRequired
	}

	claims := newJWTClaims(ts.issuer, subjectID, ts.now(), ts.ttl)
	return ts.SignClaims(claims)
}

// SignClaims signs the given claims with the configured key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("%w: claims must not be nil", ErrInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign JWT: %v", ErrInternal, err)
	}

	return signed, nil
}

// Verify parses and validates raw. Every failure wraps ErrTokenInvalid; no
// partial principal is ever returned.
func (ts *TokenService) Verify(raw string) (*Principal, error) {
	claims, err := ts.parse(raw)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}

func (ts *TokenService) parse(raw string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(ts.issuer),
		jwt.WithTimeFunc(ts.now),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrTokenExpired)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrTokenMalformed)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode claims")
		return nil, ErrTokenInvalid
	}

	if claims.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}
