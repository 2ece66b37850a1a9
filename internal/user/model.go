package user

import (
	"strings"

	"github.com/vasiliy-maslov/production-orders/internal/apperr"
)

type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleRegularUser Role = "RegularUser"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleRegularUser
}

// User is identified by its unique name. There are no credentials.
type User struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Role Role   `json:"role" db:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type CreateInput struct {
	Name string
	Role Role
}

func (in CreateInput) Validate() error {
	ve := &apperr.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.Add("name", "is required")
	}
	if !in.Role.Valid() {
		ve.Add("role", "must be one of Admin, RegularUser")
	}
	return ve.OrNil()
}
