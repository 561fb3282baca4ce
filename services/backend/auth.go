package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/core/user"
)

// ErrInvalidCredentials is returned by Login when the backend refuses the username/password.
var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService struct {
	c *Client
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	Token     string `json:"token"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	ExpiresIn int64  `json:"expiresIn"` // milliseconds
}

// Login exchanges credentials for a token, resolves the identity behind it with GET /users/me
// and only then stores the session. A failure at either step leaves the store untouched.
func (s *AuthService) Login(ctx context.Context, creds user.Credentials) (*session.Identity, error) {
	if err := creds.Validate(s.c.validator); err != nil {
		return nil, err
	}

	var resp LoginResponse
	err := s.c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: creds}, &resp)
	if core.IsAuthentication(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "logging in")
	}
	if resp.Token == "" {
		return nil, core.NewNetworkError("POST /auth/login", http.StatusOK, "login response carried no token", nil)
	}

	var usr user.User
	if err := s.c.do(ctx, request{method: http.MethodGet, path: "/users/me", token: resp.Token}, &usr); err != nil {
		return nil, errors.Wrap(err, "fetching current user")
	}

	identity := usr.Identity()
	s.c.sessions.Set(resp.Token, identity)
	s.c.logger.Info("logged in", identity)
	return identity, nil
}

// Verify asks the backend whether token is still valid. Any rejection counts as invalid.
func (s *AuthService) Verify(ctx context.Context, token string) (bool, error) {
	var valid bool
	q := url.Values{"token": {token}}
	err := s.c.do(ctx, request{method: http.MethodPost, path: "/auth/verify", query: q}, &valid)
	if err == nil {
		return valid, nil
	}
	if _, ok := errors.Cause(err).(*core.ValidationError); ok || core.IsAuthentication(err) {
		return false, nil
	}
	return false, err
}

// Logout ends the local session. The backend keeps no server-side session to revoke.
func (s *AuthService) Logout() {
	s.c.sessions.Logout()
}
