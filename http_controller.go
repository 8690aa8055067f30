package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// Fixed response messages of the HTTP surface
const (
	MsgEmptyBody        = "Cuerpo de la solicitud vacio"
	MsgInvalidBody      = "Cuerpo de la solicitud invalido"
	MsgMissingFields    = "faltan datos (email o contraseña)"
	MsgLoginFailed      = "Error al iniciar sesion"
	MsgLoginInternal    = "error interno del servidor"
	MsgInternal         = "Error interno del servidor"
	MsgUserIDRequired   = "ID de usuario requerido"
	MsgUserNotFound     = "Usuario no encontrado"
	MsgAccessGranted    = "Acceso permitido"
	MsgNotImplementedFn = "Funcionalidad por implementar"
)

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Credential returns the login attempt carried by the payload
func (r LoginRequest) Credential() Credential {
	return Credential{Identifier: r.Email, Secret: r.Password}
}

// LoginResponse is the body of a successful login
type LoginResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	Data        string `json:"data"`
}

// UsersResponse is the body of the user list endpoint
type UsersResponse struct {
	Success bool    `json:"success"`
	Data    []*User `json:"data"`
	Total   int     `json:"total"`
}

// UserResponse is the body of the single user endpoint
type UserResponse struct {
	Success bool  `json:"success"`
	Data    *User `json:"data"`
}

// ProtectedResponse echoes the request principal
type ProtectedResponse struct {
	Success bool       `json:"success"`
	Msg     string     `json:"msg"`
	User    *Principal `json:"user"`
}

// MessageResponse is used for rejections
type MessageResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// ErrorResponse is used for internal failures
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// AuthController serves the login and user endpoints
type AuthController struct {
	Logger     Logger
	Auther     Authenticator
	Users      UserDirectory
	ContextKey string
}

// AuthControllerOption configures an AuthController
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if logger != nil {
			a.Logger = componentLogger(logger, "auth.http")
		}
		return a
	}
}

// WithAuthenticator sets the authenticator used by the login endpoint
func WithAuthenticator(auther Authenticator) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Auther = auther
		return a
	}
}

// WithUserDirectory sets the store read by the user endpoints
func WithUserDirectory(users UserDirectory) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Users = users
		return a
	}
}

// WithContextKey sets the Locals key the principal is read from
func WithContextKey(key string) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if key != "" {
			a.ContextKey = key
		}
		return a
	}
}

// NewAuthController builds the controller. It panics when the authenticator
// or the user directory are missing.
func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     newDefLogger("auth.http"),
		ContextKey: DefaultContextKey,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Users == nil {
		panic("Missing UserDirectory in auth controller...")
	}

	return c
}

// LoginPost verifies the posted credentials and returns a token.
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{Msg: MsgEmptyBody})
	}

	payload, err := decodeLoginRequest(body)
	if err != nil {
		a.Logger.Debug("login payload decode error", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{Msg: MsgInvalidBody})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{Msg: MsgMissingFields})
	}

	result, err := a.Auther.Authenticate(c.UserContext(), payload.Credential())
	switch OutcomeOf(err) {
	case OutcomeSuccess:
		return c.Status(fiber.StatusOK).JSON(LoginResponse{
			Success:     true,
			AccessToken: result.Token,
			Data:        result.DisplayName,
		})
	case OutcomeRejected:
		if errors.Is(err, ErrMissingCredentials) {
			return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{Msg: MsgMissingFields})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(MessageResponse{Msg: MsgLoginFailed})
	default:
		a.Logger.Error("login internal error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: MsgLoginInternal})
	}
}

// ListUsers returns every user ordered by first name.
func (a *AuthController) ListUsers(c *fiber.Ctx) error {
	records, err := a.Users.List(c.UserContext())
	if err != nil {
		a.Logger.Error("list users error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: MsgInternal})
	}

	return c.Status(fiber.StatusOK).JSON(UsersResponse{
		Success: true,
		Data:    records,
		Total:   len(records),
	})
}

// GetUser returns a single user by id.
func (a *AuthController) GetUser(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{Msg: MsgUserIDRequired})
	}

	record, err := a.Users.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(MessageResponse{Msg: MsgUserNotFound})
		}
		a.Logger.Error("get user error", "error", err, "id", id)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: MsgInternal})
	}

	return c.Status(fiber.StatusOK).JSON(UserResponse{Success: true, Data: record})
}

// Protected echoes the principal attached by the access middleware.
func (a *AuthController) Protected(c *fiber.Ctx) error {
	principal, err := PrincipalFromFiber(c, a.ContextKey)
	if err != nil {
		a.Logger.Error("protected route reached without principal", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: MsgInternal})
	}

	return c.Status(fiber.StatusOK).JSON(ProtectedResponse{
		Success: true,
		Msg:     MsgAccessGranted,
		User:    principal,
	})
}

// NotImplemented answers the user write routes that have no behavior yet.
func (a *AuthController) NotImplemented(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"msg": fmt.Sprintf("%s %s - %s", c.Method(), c.Path(), MsgNotImplementedFn),
	})
}

func decodeLoginRequest(body []byte) (LoginRequest, error) {
	var payload LoginRequest

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&payload); err != nil {
		return payload, err
	}

	if dec.More() {
		return payload, errors.New("unexpected data after login payload")
	}

	return payload, nil
}
