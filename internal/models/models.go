// Package models contains the shared data structures of the service:
// the short URL record, request/response payloads of the HTTP API and
// the structured partial-update types consumed by the storage layer.
package models

import (
	"errors"
	"time"

	"github.com/patric-chuzhbe/shortly/internal/user"
)

// ErrNotFound is returned by storage implementations when the requested
// record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned by storage implementations when an insert or
// update violates a uniqueness constraint (username, email or short code).
var ErrConflict = errors.New("record already exists")

// ShortURL is a stored mapping from a derived short code to an original URL.
type ShortURL struct {
	// ID is the unique identifier of the record, meaning a UUID.
	ID string `json:"id"`

	OriginalURL string `json:"original_url"`

	// ShortCode is the derived fixed-length code, unique across all records.
	ShortCode string `json:"short_code"`

	CreatedAt time.Time `json:"created_at"`

	Expiration *time.Time `json:"expiration,omitempty"`

	// ClickCount only increases, via the redirect path.
	ClickCount int64 `json:"click_count"`

	// UserID references the creating user. Nil for anonymous records.
	UserID *string `json:"user_id,omitempty"`
}

// IsExpired reports whether the record's expiration instant has passed.
// A record without an expiration never expires.
func (u *ShortURL) IsExpired() bool {
	return u.Expiration != nil && time.Now().After(*u.Expiration)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

// UpdateUserRequest carries a partial update: only non-nil fields are applied.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type CreateURLRequest struct {
	OriginalURL string `json:"original_url" validate:"required,url"`
}

// UpdateURLRequest carries a partial update of a short URL record.
// Supplying OriginalURL forces re-derivation of the short code.
type UpdateURLRequest struct {
	OriginalURL *string    `json:"original_url,omitempty" validate:"omitempty,url"`
	Expiration  *time.Time `json:"expiration,omitempty"`
}

// ShortURLResponse is the short URL record enriched with its public
// redirect address.
type ShortURLResponse struct {
	ShortURL
	Address string `json:"short_url"`
}

type InternalStatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}

// ErrorResponse is the machine-readable payload returned on every failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserPatch is the structured partial-update representation for user
// records. Nil fields are left untouched by the storage layer.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	IsActive     *bool
}

// IsEmpty reports whether the patch carries no field updates.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil && p.IsActive == nil
}

// ShortURLPatch is the structured partial-update representation for short
// URL records. OriginalURL and ShortCode are always set together so the
// stored pair can never go stale.
type ShortURLPatch struct {
	OriginalURL *string
	ShortCode   *string
	Expiration  *time.Time
}

// IsEmpty reports whether the patch carries no field updates.
func (p ShortURLPatch) IsEmpty() bool {
	return p.OriginalURL == nil && p.ShortCode == nil && p.Expiration == nil
}
