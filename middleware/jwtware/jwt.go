package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization

	// ErrMissingAuthHeader is returned when no token source is present on the request
	ErrMissingAuthHeader = errors.New("missing authorization header")
)

// Messages written by the default error handler.
const (
	MessageUnauthorized = "No autorizado"
	MessageInvalidToken = "Token invalido o expirado"
)

// Claims is the minimum a validated token must expose to the middleware.
type Claims interface {
	Subject() string
}

// TokenValidator validates a raw token without tying the middleware to a
// signing implementation.
type TokenValidator interface {
	Validate(raw string) (Claims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(raw string) (Claims, error)

// Validate satisfies TokenValidator.
func (f TokenValidatorFunc) Validate(raw string) (Claims, error) {
	return f(raw)
}

// ValidationListener is invoked after a token has been validated.
type ValidationListener func(c *fiber.Ctx, claims Claims) error

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	// ContextKey is the Locals key holding the validated claims.
	ContextKey string
	// TokenLookup is a comma separated list of source:name pairs,
	// e.g. "header:Authorization,cookie:jwt".
	TokenLookup string
	AuthScheme  string
	// TokenValidator is required.
	TokenValidator TokenValidator
	// ContextEnricher propagates claims to the request user context.
	ContextEnricher     func(c context.Context, claims Claims) context.Context
	ValidationListeners []ValidationListener
}

// New returns a fiber handler that rejects requests without a valid token.
// Handlers registered after it only run for requests whose token verified.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}
		if claims == nil {
			return cfg.ErrorHandler(c, errors.New("validator returned no claims"))
		}

		for _, listener := range cfg.ValidationListeners {
			if listener == nil {
				continue
			}
			if err := listener(c, claims); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))
		}

		return cfg.SuccessHandler(c)
	}
}

// DefaultErrorHandler answers 400 when no token was presented and 401 for
// every other failure.
func DefaultErrorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrMissingAuthHeader) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": MessageUnauthorized})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": MessageInvalidToken})
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// Extractor pulls a raw token out of a request. It returns
// ErrMissingAuthHeader when its source is absent and an empty token when the
// source is present but not in the expected form.
type Extractor func(c *fiber.Ctx) (string, error)

// ExtractRawToken runs extractors in order and returns the first token found.
// A present but malformed source yields an empty token and no error, so that
// verification rejects it.
func ExtractRawToken(c *fiber.Ctx, extractors []Extractor) (string, error) {
	err := ErrMissingAuthHeader
	for _, extractor := range extractors {
		raw, e := extractor(c)
		if e != nil {
			continue
		}
		if raw != "" {
			return raw, nil
		}
		err = nil
	}
	return "", err
}

func GetExtractors(tokenLookup string, authSchemes ...string) []Extractor {
	extractors := make([]Extractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	// header:Authorization,cookie:jwt,query:auth_token
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch source {
		case "header":
			extractors = append(extractors, fromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		}
	}

	return extractors
}

// fromHeader expects "<scheme> <token>". Only an empty header counts as
// missing; a blank one is malformed.
func fromHeader(header, authScheme string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		value := c.Get(header)
		if value == "" {
			return "", ErrMissingAuthHeader
		}

		parts := strings.Fields(value)
		if len(parts) != 2 || !strings.EqualFold(parts[0], authScheme) {
			return "", nil
		}
		return parts[1], nil
	}
}

func fromQuery(param string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrMissingAuthHeader
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingAuthHeader
		}
		return token, nil
	}
}
