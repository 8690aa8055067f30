package auth_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-gate"
)

type httpFixture struct {
	app    *fiber.App
	tokens *auth.TokenService
	users  *MockUserDirectory
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()

	tokens := newTokenService(t)

	store := new(MockUserStore)
	store.On("GetByIdentifier", mock.Anything, "ana@example.com").Return(anaUser(), nil).Maybe()
	store.On("GetByIdentifier", mock.Anything, "broken@example.com").Return(nil, errors.New("db down")).Maybe()
	store.On("GetByIdentifier", mock.Anything, mock.Anything).Return(nil, auth.ErrIdentityNotFound).Maybe()

	users := new(MockUserDirectory)

	controller := auth.NewAuthController(
		auth.WithAuthenticator(auth.NewAuthenticator(auth.NewUserProvider(store), tokens)),
		auth.WithUserDirectory(users),
	)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	auth.RegisterRoutes(app, controller, auth.ProtectedRoute(newMockConfig(testSigningKey, testIssuer), tokens, nil))

	return &httpFixture{app: app, tokens: tokens, users: users}
}

func (f *httpFixture) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (f *httpFixture) bearer(t *testing.T, subject string) map[string]string {
	t.Helper()
	token, err := f.tokens.Issue(subject)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestLoginPost(t *testing.T) {
	f := newHTTPFixture(t)

	t.Run("success", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/", `{"email":"ana@example.com","password":"secreto123"}`, nil)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Ana Gomez", body["data"])

		token, _ := body["accessToken"].(string)
		require.NotEmpty(t, token)

		principal, err := f.tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, anaUser().ID, principal.Subject())
	})

	cases := []struct {
		name   string
		body   string
		status int
		want   map[string]any
	}{
		{
			name:   "empty body",
			body:   "",
			status: http.StatusBadRequest,
			want:   map[string]any{"success": false, "msg": "Cuerpo de la solicitud vacio"},
		},
		{
			name:   "malformed json",
			body:   `{"email":`,
			status: http.StatusBadRequest,
			want:   map[string]any{"success": false, "msg": "Cuerpo de la solicitud invalido"},
		},
		{
			name:   "unknown field",
			body:   `{"email":"ana@example.com","password":"secreto123","admin":true}`,
			status: http.StatusBadRequest,
			want:   map[string]any{"success": false, "msg": "Cuerpo de la solicitud invalido"},
		},
		{
			name:   "missing password",
			body:   `{"email":"ana@example.com"}`,
			status: http.StatusBadRequest,
			want:   map[string]any{"success": false, "msg": "faltan datos (email o contraseña)"},
		},
		{
			name:   "missing email",
			body:   `{"password":"secreto123"}`,
			status: http.StatusBadRequest,
			want:   map[string]any{"success": false, "msg": "faltan datos (email o contraseña)"},
		},
		{
			name:   "wrong password",
			body:   `{"email":"ana@example.com","password":"nope"}`,
			status: http.StatusUnauthorized,
			want:   map[string]any{"success": false, "msg": "Error al iniciar sesion"},
		},
		{
			name:   "unknown user",
			body:   `{"email":"zoe@example.com","password":"secreto123"}`,
			status: http.StatusUnauthorized,
			want:   map[string]any{"success": false, "msg": "Error al iniciar sesion"},
		},
		{
			name:   "store failure",
			body:   `{"email":"broken@example.com","password":"secreto123"}`,
			status: http.StatusInternalServerError,
			want:   map[string]any{"success": false, "error": "error interno del servidor"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := f.do(t, http.MethodPost, "/", tc.body, nil)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.want, body)
		})
	}
}

func TestProtectedRoutes_Gate(t *testing.T) {
	f := newHTTPFixture(t)

	expiredIssuer, err := auth.NewTokenService(newMockConfig(testSigningKey, testIssuer),
		auth.WithClock(fixedClock(time.Now().Add(-time.Hour))))
	require.NoError(t, err)
	expired, err := expiredIssuer.Issue("user-1")
	require.NoError(t, err)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/abc"},
		{http.MethodGet, "/protected"},
		{http.MethodPost, "/users"},
		{http.MethodPut, "/users/abc"},
		{http.MethodDelete, "/users/abc"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			status, body := f.do(t, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, map[string]any{"error": "No autorizado"}, body)

			status, body = f.do(t, p.method, p.path, "", map[string]string{"Authorization": "Bearer " + expired})
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, map[string]any{"error": "Token invalido o expirado"}, body)

			status, body = f.do(t, p.method, p.path, "", map[string]string{"Authorization": "Token abc"})
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, map[string]any{"error": "Token invalido o expirado"}, body)
		})
	}

	f.users.AssertNotCalled(t, "List", mock.Anything)
	f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestListUsers(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newHTTPFixture(t)
		f.users.On("List", mock.Anything).Return([]*auth.User{
			anaUser(),
			{ID: "u-2", FirstName: "Bruno", LastName: "Diaz", Email: "bruno@example.com", Password: "clave456"},
		}, nil).Once()

		status, body := f.do(t, http.MethodGet, "/users", "", f.bearer(t, "u-2"))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(2), body["total"])

		data, ok := body["data"].([]any)
		require.True(t, ok)
		require.Len(t, data, 2)

		first := data[0].(map[string]any)
		assert.Equal(t, map[string]any{
			"idUsuario": anaUser().ID,
			"nombre":    "Ana",
			"apellido":  "Gomez",
			"email":     "ana@example.com",
		}, first, "the password is never serialized")
	})

	t.Run("empty", func(t *testing.T) {
		f := newHTTPFixture(t)
		f.users.On("List", mock.Anything).Return([]*auth.User{}, nil).Once()

		status, body := f.do(t, http.MethodGet, "/users", "", f.bearer(t, "u-2"))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []any{}, body["data"])
		assert.Equal(t, float64(0), body["total"])
	})

	t.Run("store failure", func(t *testing.T) {
		f := newHTTPFixture(t)
		f.users.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

		status, body := f.do(t, http.MethodGet, "/users", "", f.bearer(t, "u-2"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, map[string]any{"success": false, "error": "Error interno del servidor"}, body)
	})
}

func TestGetUser(t *testing.T) {
	f := newHTTPFixture(t)
	f.users.On("GetByID", mock.Anything, anaUser().ID).Return(anaUser(), nil)
	f.users.On("GetByID", mock.Anything, "missing").Return(nil, auth.ErrIdentityNotFound)
	f.users.On("GetByID", mock.Anything, "broken").Return(nil, errors.New("db down"))

	headers := f.bearer(t, "u-2")

	t.Run("found", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/users/"+anaUser().ID, "", headers)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Ana", data["nombre"])
		assert.NotContains(t, data, "password")
	})

	t.Run("not found", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/users/missing", "", headers)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, map[string]any{"success": false, "msg": "Usuario no encontrado"}, body)
	})

	t.Run("store failure", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/users/broken", "", headers)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, map[string]any{"success": false, "error": "Error interno del servidor"}, body)
	})

	t.Run("blank id", func(t *testing.T) {
		users := new(MockUserDirectory)
		controller := auth.NewAuthController(
			auth.WithAuthenticator(new(MockAuthenticator)),
			auth.WithUserDirectory(users),
		)

		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		app.Get("/lookup/:id?", controller.GetUser)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/lookup", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"success":false,"msg":"ID de usuario requerido"}`, string(raw))
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestProtectedEndpoint(t *testing.T) {
	f := newHTTPFixture(t)

	token, err := f.tokens.Issue("u-7")
	require.NoError(t, err)
	principal, err := f.tokens.Verify(token)
	require.NoError(t, err)

	status, body := f.do(t, http.MethodGet, "/protected", "", map[string]string{"Authorization": "bearer " + token})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Acceso permitido", body["msg"])
	assert.Equal(t, map[string]any{
		"sub": "u-7",
		"iss": testIssuer,
		"jti": principal.TokenID,
		"exp": float64(principal.ExpiresAt),
	}, body["user"])
}

func TestNotImplementedRoutes(t *testing.T) {
	f := newHTTPFixture(t)
	headers := f.bearer(t, "u-1")

	cases := []struct{ method, path, msg string }{
		{http.MethodPost, "/users", "POST /users - Funcionalidad por implementar"},
		{http.MethodPut, "/users/42", "PUT /users/42 - Funcionalidad por implementar"},
		{http.MethodDelete, "/users/42", "DELETE /users/42 - Funcionalidad por implementar"},
	}

	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			status, body := f.do(t, tc.method, tc.path, "", headers)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, map[string]any{"msg": tc.msg}, body)
		})
	}
}

func TestNewAuthController_RequiresDependencies(t *testing.T) {
	assert.Panics(t, func() {
		auth.NewAuthController(auth.WithUserDirectory(new(MockUserDirectory)))
	})
	assert.Panics(t, func() {
		auth.NewAuthController(auth.WithAuthenticator(new(MockAuthenticator)))
	})
}

func TestHTTPErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          auth.HTTPErrorHandler(nil),
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("secret internals")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"success":false,"error":"Error interno del servidor"}`, string(raw))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProtectedRoute_Listeners(t *testing.T) {
	tokens := newTokenService(t)
	blocked := errors.New("blocked subject")

	var seen []string
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/guarded", auth.ProtectedRoute(newMockConfig(testSigningKey, testIssuer), tokens, nil,
		func(c *fiber.Ctx, claims auth.Claims) error {
			seen = append(seen, claims.Subject())
			if claims.Subject() == "u-blocked" {
				return blocked
			}
			return nil
		},
		nil,
	), func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c.UserContext())
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(principal.Subject())
	})

	request := func(subject string) *http.Response {
		token, err := tokens.Issue(subject)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := request("u-ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "u-ok", string(raw))

	resp = request("u-blocked")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, []string{"u-ok", "u-blocked"}, seen)
}

func TestProtectedRoute_NilPrincipalIsRejected(t *testing.T) {
	verifier := auth.TokenVerifierFunc(func(string) (*auth.Principal, error) {
		return nil, nil
	})

	reached := false
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/guarded", auth.ProtectedRoute(newMockConfig(testSigningKey, testIssuer), verifier, nil),
		func(c *fiber.Ctx) error {
			reached = true
			return c.SendStatus(http.StatusOK)
		})

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer x")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, reached)

	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Token invalido o expirado"}`, string(raw))
}
