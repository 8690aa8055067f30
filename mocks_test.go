package auth_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-auth-gate"
)

const (
	testSigningKey = "test-signing-key-0123456789abcdefghij"
	testIssuer     = "test-issuer"
)

// MockConfig implements auth.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetPasswordScheme() string {
	args := m.Called()
	return args.String(0)
}

func newMockConfig(signingKey, issuer string) *MockConfig {
	cfg := new(MockConfig)
	cfg.On("GetSigningKey").Return(signingKey).Maybe()
	cfg.On("GetIssuer").Return(issuer).Maybe()
	cfg.On("GetContextKey").Return("user").Maybe()
	cfg.On("GetAuthScheme").Return("Bearer").Maybe()
	cfg.On("GetPasswordScheme").Return("plaintext").Maybe()
	return cfg
}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, secret string) (auth.Identity, error) {
	args := m.Called(ctx, identifier, secret)
	if identity, ok := args.Get(0).(auth.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	if user, ok := args.Get(0).(*auth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserDirectory implements auth.UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*auth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserDirectory) List(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*auth.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, credential auth.Credential) (*auth.LoginResult, error) {
	args := m.Called(ctx, credential)
	if res, ok := args.Get(0).(*auth.LoginResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTokenIssuer implements auth.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(subjectID string) (string, error) {
	args := m.Called(subjectID)
	return args.String(0), args.Error(1)
}

// MockLogger implements auth.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

func anaUser() *auth.User {
	return &auth.User{
		ID:        "5b1e6a0e-4d0f-4a43-9a8e-3f1b2c7d9e01",
		FirstName: "Ana",
		LastName:  "Gomez",
		Email:     "ana@example.com",
		Password:  "secreto123",
	}
}
