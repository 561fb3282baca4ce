package user

import (
	"strings"
	"time"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/role"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt,omitempty"` // UTC
	UpdatedAt time.Time `json:"updatedAt,omitempty"` // UTC
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsAdmin() bool {
	return role.Canonicalize(u.Role) == role.Admin
}

func (u User) IsProfessor() bool {
	return role.Canonicalize(u.Role) == role.Professor
}

func (u User) IsStudent() bool {
	return role.Canonicalize(u.Role) == role.Student
}

// Identity converts the backend user into the session identity. The role is kept as issued.
func (u User) Identity() *session.Identity {
	return &session.Identity{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username  string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Password  string `json:"password" validate:"required,min=6"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=50,personname"`
	LastName  string `json:"lastName" validate:"required,max=50,personname"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,phone"`
	Role      string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(v *core.Validator) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Role = string(role.Canonicalize(core.CleanString(nu.Role)))
	return v.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep the original values.
type UpdateUser struct {
	Username  string `json:"username" validate:"omitempty,min=3,max=50,alphanum_"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=6"`
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"firstName" validate:"omitempty,max=50,personname"`
	LastName  string `json:"lastName" validate:"omitempty,max=50,personname"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,phone"`
	Role      string `json:"role" validate:"omitempty,role"`
	Active    *bool  `json:"active,omitempty"`
}

func (uu *UpdateUser) Validate(orig User, v *core.Validator) error {
	keep := func(val, fallback string, lower ...bool) string {
		if s := core.CleanString(val, lower...); s != "" {
			return s
		}
		return fallback
	}
	uu.Username = keep(uu.Username, orig.Username)
	uu.Email = keep(uu.Email, orig.Email, true /* lower */)
	uu.FirstName = keep(uu.FirstName, orig.FirstName)
	uu.LastName = keep(uu.LastName, orig.LastName)
	uu.Phone = keep(uu.Phone, orig.Phone)
	if r := core.CleanString(uu.Role); r != "" {
		uu.Role = string(role.Canonicalize(r))
	} else {
		uu.Role = orig.Role
	}
	return v.Struct(uu)
}

// Credentials is the payload of POST /auth/login.
type Credentials struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required,notblank"`
}

func (c *Credentials) Validate(v *core.Validator) error {
	c.Username = core.CleanString(c.Username)
	return v.Struct(c)
}
