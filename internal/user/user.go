// Package user defines the user model used throughout the application,
// particularly for authentication and ownership of shortened URLs.
package user

import (
	"time"

	"github.com/thoas/go-funk"
)

// Role names checked by the authorization middleware. Roles are compared
// by exact match, there is no hierarchy.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a system user.
// PasswordHash always holds a one-way hash, never the raw secret.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"id"`

	Username string `json:"username"`

	Email string `json:"email"`

	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`

	UpdatedAt time.Time `json:"updated_at"`

	IsActive bool `json:"is_active"`

	// Roles is the ordered set of role names. It always contains at
	// least one element; RoleUser is assigned when none is supplied.
	Roles []string `json:"roles"`
}

// HasRole reports whether the user carries the given role name.
func (u *User) HasRole(role string) bool {
	return funk.ContainsString(u.Roles, role)
}

// PrimaryRole returns the first of the user's roles. It is the role
// embedded into session tokens issued for the user.
func (u *User) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return RoleUser
	}

	return u.Roles[0]
}
