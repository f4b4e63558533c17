// Package mockstorage provides a testify-based mock implementation
// of the storage interface. It is used for unit testing the service and
// HTTP handlers by simulating storage behavior, including failures.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

// StorageMock is a testify mock that implements the storage interface.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user creation.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// GetUserByID mocks fetching a user by their ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// GetUserByEmail mocks fetching a user by their email.
func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// ListUsers mocks listing all users.
func (m *StorageMock) ListUsers(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*user.User)
	return users, args.Error(1)
}

// UpdateUser mocks a partial user update.
func (m *StorageMock) UpdateUser(ctx context.Context, userID string, patch models.UserPatch) error {
	args := m.Called(ctx, userID, patch)
	return args.Error(0)
}

// DeleteUser mocks user deletion.
func (m *StorageMock) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// InsertShortURL mocks inserting a new short URL record.
func (m *StorageMock) InsertShortURL(ctx context.Context, shortURL *models.ShortURL) error {
	args := m.Called(ctx, shortURL)
	return args.Error(0)
}

// GetShortURLByID mocks fetching a short URL record by its ID.
func (m *StorageMock) GetShortURLByID(ctx context.Context, shortURLID string) (*models.ShortURL, error) {
	args := m.Called(ctx, shortURLID)
	shortURL, _ := args.Get(0).(*models.ShortURL)
	return shortURL, args.Error(1)
}

// GetShortURLByCode mocks fetching a short URL record by its code.
func (m *StorageMock) GetShortURLByCode(ctx context.Context, shortCode string) (*models.ShortURL, error) {
	args := m.Called(ctx, shortCode)
	shortURL, _ := args.Get(0).(*models.ShortURL)
	return shortURL, args.Error(1)
}

// UpdateShortURL mocks a partial short URL update.
func (m *StorageMock) UpdateShortURL(ctx context.Context, shortURLID string, patch models.ShortURLPatch) error {
	args := m.Called(ctx, shortURLID, patch)
	return args.Error(0)
}

// DeleteShortURL mocks short URL deletion.
func (m *StorageMock) DeleteShortURL(ctx context.Context, shortURLID string) error {
	args := m.Called(ctx, shortURLID)
	return args.Error(0)
}

// ListUserShortURLs mocks listing a user's short URL records.
func (m *StorageMock) ListUserShortURLs(ctx context.Context, userID string) ([]*models.ShortURL, error) {
	args := m.Called(ctx, userID)
	shortURLs, _ := args.Get(0).([]*models.ShortURL)
	return shortURLs, args.Error(1)
}

// AddClicks mocks applying aggregated click increments.
func (m *StorageMock) AddClicks(ctx context.Context, clicksByCode map[string]int64) error {
	args := m.Called(ctx, clicksByCode)
	return args.Error(0)
}

// GetNumberOfShortenedURLs mocks the short URL total.
func (m *StorageMock) GetNumberOfShortenedURLs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfUsers mocks the user total.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
