package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	auth "github.com/goliatone/go-auth-gate"
)

// Client performs typed calls to the protected endpoints through a Session.
// Every call goes through Session.Do, so a rejected token logs the session
// out regardless of which call saw it.
type Client struct {
	session *Session
}

// New returns a Client bound to session
func New(session *Session) *Client {
	return &Client{session: session}
}

// Session returns the underlying session
func (c *Client) Session() *Session {
	return c.session
}

// ListUsers returns all users and the total reported by the server.
func (c *Client) ListUsers(ctx context.Context) ([]*auth.User, int, error) {
	var out auth.UsersResponse
	if err := c.getJSON(ctx, "/users", &out); err != nil {
		return nil, 0, err
	}
	return out.Data, out.Total, nil
}

// GetUser returns a single user.
func (c *Client) GetUser(ctx context.Context, id string) (*auth.User, error) {
	var out auth.UserResponse
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Protected calls the diagnostic endpoint and returns the principal the
// server attached to the request.
func (c *Client) Protected(ctx context.Context) (*auth.Principal, error) {
	var out auth.ProtectedResponse
	if err := c.getJSON(ctx, "/protected", &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	// checked before building the request so nothing is sent when logged out
	if !c.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.session.BaseURL()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.session.Do(ctx, req)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}
