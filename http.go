package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-auth-gate/middleware/jwtware"
)

// ProtectedRoute returns the access middleware for cfg. Verified principals
// are stored under cfg.GetContextKey() and in the request user context.
// Listeners run after verification and can still reject the request.
func ProtectedRoute(cfg Config, verifier TokenVerifier, logger Logger, listeners ...ValidationListener) fiber.Handler {
	log := componentLogger(logger, "auth.middleware")

	mwCfg := jwtware.Config{
		ContextKey:      cfg.GetContextKey(),
		AuthScheme:      cfg.GetAuthScheme(),
		TokenValidator:  MiddlewareValidator(verifier),
		ContextEnricher: ContextEnricherAdapter,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if !errors.Is(err, jwtware.ErrMissingAuthHeader) {
				log.Debug("token rejected", "error", err, "path", c.Path(), "expired", IsTokenExpiredError(err))
			}
			return jwtware.DefaultErrorHandler(c, err)
		},
	}
	RegisterValidationListeners(&mwCfg, listeners...)

	return jwtware.New(mwCfg)
}

// RegisterRoutes mounts the login endpoint and the protected user routes on
// router. protected guards every route except login.
func RegisterRoutes(router fiber.Router, controller *AuthController, protected fiber.Handler) {
	router.Post("/", controller.LoginPost).Name("login.post")

	router.Get("/users", protected, controller.ListUsers).Name("users.list")
	router.Get("/users/:id", protected, controller.GetUser).Name("users.get")
	router.Get("/protected", protected, controller.Protected).Name("protected.get")

	router.Post("/users", protected, controller.NotImplemented).Name("users.create")
	router.Put("/users/:id", protected, controller.NotImplemented).Name("users.update")
	router.Delete("/users/:id", protected, controller.NotImplemented).Name("users.delete")
}

// HTTPErrorHandler renders errors that escape handlers as JSON. Internal
// details are logged, never returned.
func HTTPErrorHandler(logger Logger) fiber.ErrorHandler {
	log := componentLogger(logger, "auth.http")

	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
		}

		log.Error("unhandled error", "error", err, "method", c.Method(), "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: MsgInternal})
	}
}
