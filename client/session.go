// Package client holds the client side of the token gate: a Session that
// owns the token and drives login and logout, and a Client with typed calls
// to the protected endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	auth "github.com/goliatone/go-auth-gate"
)

// State of a Session
type State int

const (
	StateLoggedOut State = iota
	StateLoggingIn
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedIn:
		return "logged_in"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Credential is a login attempt
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the principal held by a logged in session
type User struct {
	ID    string
	Name  string
	Email string
}

// TransitionFunc observes state changes. It runs after the change is applied
// and outside the session lock.
type TransitionFunc func(from, to State)

// DefaultDisplayName is used when the server returns no name
const DefaultDisplayName = "Usuario"

// Session is the single owner of the token and principal. It is safe for
// concurrent use; concurrent logins are not coalesced.
type Session struct {
	baseURL    string
	httpClient *http.Client
	logger     auth.Logger

	mu        sync.RWMutex
	state     State
	user      *User
	token     string
	observers []TransitionFunc
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithHTTPClient sets the client used for every request
func WithHTTPClient(c *http.Client) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l auth.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession returns a logged out session talking to baseURL.
func NewSession(baseURL string, opts ...SessionOption) *Session {
	s := &Session{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     auth.NewSlogLogger(nil).With("component", "client.session"),
		state:      StateLoggedOut,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// BaseURL returns the server root
func (s *Session) BaseURL() string {
	return s.baseURL
}

// State returns the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether both a token and a principal are held.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateLoggedIn && s.token != "" && s.user != nil
}

// User returns a copy of the principal when logged in.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateLoggedIn || s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Token returns the held token when logged in.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateLoggedIn {
		return "", false
	}
	return s.token, true
}

// OnTransition registers fn for every state change.
func (s *Session) OnTransition(fn TransitionFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

type loginResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	Data        string `json:"data"`
	Msg         string `json:"msg"`
	Error       string `json:"error"`
}

// Login posts credential to the server. On success the session is logged in;
// on any failure it ends logged out and a generic error is returned. It never
// retries.
func (s *Session) Login(ctx context.Context, credential Credential) error {
	if err := s.beginLogin(); err != nil {
		return err
	}

	token, user, err := s.requestToken(ctx, credential)
	if err != nil {
		s.failLogin()
		return err
	}

	s.completeLogin(token, user)
	return nil
}

func (s *Session) requestToken(ctx context.Context, credential Credential) (string, User, error) {
	body, err := json.Marshal(credential)
	if err != nil {
		return "", User{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return "", User{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("login request failed", "error", err)
		return "", User{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer drain(resp.Body)

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.logger.Warn("login response decode failed", "error", err, "status", resp.StatusCode)
		return "", User{}, ErrLoginFailed
	}

	if resp.StatusCode != http.StatusOK || !payload.Success || payload.AccessToken == "" {
		s.logger.Info("login rejected", "status", resp.StatusCode, "msg", payload.Msg)
		return "", User{}, ErrLoginFailed
	}

	subject, err := subjectFromToken(payload.AccessToken)
	if err != nil {
		s.logger.Warn("login token has no subject", "error", err)
		return "", User{}, ErrLoginFailed
	}

	name := payload.Data
	if strings.TrimSpace(name) == "" {
		name = DefaultDisplayName
	}

	return payload.AccessToken, User{ID: subject, Name: name, Email: credential.Email}, nil
}

// subjectFromToken reads sub without verifying the signature. The client
// holds no key; the server verifies on every protected call.
func subjectFromToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Logout clears the token and principal. It does not contact the server.
func (s *Session) Logout() {
	s.transition(func() {
		s.state = StateLoggedOut
		s.token = ""
		s.user = nil
	})
}

// AttachToken sets the bearer token on req. It fails with
// ErrNotAuthenticated when logged out.
func (s *Session) AttachToken(req *http.Request) error {
	token, ok := s.Token()
	if !ok || token == "" {
		return ErrNotAuthenticated
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Do sends a protected request. A 401 response logs the session out and
// returns ErrSessionExpired. The caller closes the returned body.
func (s *Session) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, ok := s.Token()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp.Body)
		s.expire(token)
		return nil, ErrSessionExpired
	}

	return resp, nil
}

func (s *Session) beginLogin() error {
	var err error
	s.transition(func() {
		if s.state == StateLoggingIn {
			err = ErrLoginInProgress
			return
		}
		s.state = StateLoggingIn
		s.token = ""
		s.user = nil
	})
	return err
}

func (s *Session) completeLogin(token string, user User) {
	s.transition(func() {
		s.state = StateLoggedIn
		s.token = token
		s.user = &user
	})
}

func (s *Session) failLogin() {
	s.Logout()
}

// expire logs out only if token is still the one held, so a rejection of an
// old token does not end a newer session.
func (s *Session) expire(token string) {
	s.transition(func() {
		if s.token != token {
			return
		}
		s.logger.Info("session token rejected, logging out")
		s.state = StateLoggedOut
		s.token = ""
		s.user = nil
	})
}

func (s *Session) transition(apply func()) {
	s.mu.Lock()
	from := s.state
	apply()
	to := s.state
	observers := append([]TransitionFunc(nil), s.observers...)
	s.mu.Unlock()

	if from == to {
		return
	}

	for _, fn := range observers {
		fn(from, to)
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
