package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/passhash"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

func newUser(username, email, password string, roles []string, isActive bool) (*user.User, error) {
	hash, err := passhash.Hash(password)
	if err != nil {
		return nil, err
	}

	if len(roles) == 0 {
		roles = []string{user.RoleUser}
	}

	now := time.Now()

	return &user.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsActive:     isActive,
		Roles:        roles,
	}, nil
}

// Register creates a user with the default role and immediately issues a
// session token for it, so a sign-up doubles as a sign-in.
// A username or email collision surfaces as models.ErrConflict.
func (s *Service) Register(ctx context.Context, request models.RegisterRequest) (*user.User, string, error) {
	usr, err := newUser(request.Username, request.Email, request.Password, nil, true)
	if err != nil {
		return nil, "", err
	}

	if err := s.db.CreateUser(ctx, usr); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(usr.ID, usr.PrimaryRole())
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// Authenticate verifies the credentials and issues a session token.
// An unknown email, a wrong password and a deactivated account all yield
// the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	usr, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	passwordMatches, err := passhash.Verify(password, usr.PasswordHash)
	if err != nil {
		return "", err
	}
	if !passwordMatches || !usr.IsActive {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(usr.ID, usr.PrimaryRole())
}

// CreateUser is the administrative user creation: roles and the active
// flag may be supplied explicitly, and no session token is issued.
func (s *Service) CreateUser(ctx context.Context, request models.CreateUserRequest) (*user.User, error) {
	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}

	usr, err := newUser(request.Username, request.Email, request.Password, request.Roles, isActive)
	if err != nil {
		return nil, err
	}

	if err := s.db.CreateUser(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// GetUser returns the user record with the given ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*user.User, error) {
	return s.db.GetUserByID(ctx, userID)
}

// ListUsers returns all user records.
func (s *Service) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.db.ListUsers(ctx)
}

// UpdateUser applies the supplied fields only; a supplied password is
// re-hashed before it reaches the store.
func (s *Service) UpdateUser(ctx context.Context, userID string, request models.UpdateUserRequest) error {
	patch := models.UserPatch{
		Username: request.Username,
		Email:    request.Email,
		IsActive: request.IsActive,
	}

	if request.Password != nil {
		hash, err := passhash.Hash(*request.Password)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	return s.db.UpdateUser(ctx, userID, patch)
}

// DeleteUser removes the user record with the given ID.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.db.DeleteUser(ctx, userID)
}
