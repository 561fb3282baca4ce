package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/role"
	"github.com/EduardoBullon/SEM16-PC04/core/user"
)

type UserService struct {
	c *Client
}

// Me returns the user behind the stored credential.
func (s *UserService) Me(ctx context.Context) (*user.User, error) {
	var usr user.User
	if err := s.c.Do(ctx, http.MethodGet, "/users/me", nil, &usr); err != nil {
		return nil, err
	}
	return &usr, nil
}

func (s *UserService) List(ctx context.Context) ([]user.User, error) {
	var users []user.User
	return users, s.c.Do(ctx, http.MethodGet, "/users", nil, &users)
}

func (s *UserService) Get(ctx context.Context, id int64) (*user.User, error) {
	var usr user.User
	if err := s.c.Do(ctx, http.MethodGet, idPath("/users", id), nil, &usr); err != nil {
		return nil, err
	}
	return &usr, nil
}

func (s *UserService) ByRole(ctx context.Context, r role.Role) ([]user.User, error) {
	var users []user.User
	return users, s.c.Do(ctx, http.MethodGet, "/users/role/"+url.PathEscape(r.String()), nil, &users)
}

func (s *UserService) Create(ctx context.Context, nu user.NewUser) (*user.User, error) {
	if err := nu.Validate(s.c.validator); err != nil {
		return nil, err
	}
	var usr user.User
	if err := s.c.Do(ctx, http.MethodPost, "/users", nu, &usr); err != nil {
		return nil, errors.Wrap(err, "creating user")
	}
	return &usr, nil
}

// Update fetches the current user first so empty fields keep their values.
func (s *UserService) Update(ctx context.Context, id int64, uu user.UpdateUser) (*user.User, error) {
	orig, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uu.Validate(*orig, s.c.validator); err != nil {
		return nil, err
	}
	var usr user.User
	if err := s.c.Do(ctx, http.MethodPut, idPath("/users", id), uu, &usr); err != nil {
		return nil, errors.Wrap(err, "updating user")
	}
	return &usr, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, http.MethodDelete, idPath("/users", id), nil, nil)
}
