// Package storage declares the full persistence contract of the service.
// Consumers depend on narrower local interfaces; this union exists for
// wiring in the app package and for the testify mock.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) error

	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	ListUsers(ctx context.Context) ([]*user.User, error)

	UpdateUser(ctx context.Context, userID string, patch models.UserPatch) error

	DeleteUser(ctx context.Context, userID string) error

	InsertShortURL(ctx context.Context, shortURL *models.ShortURL) error

	GetShortURLByID(ctx context.Context, shortURLID string) (*models.ShortURL, error)

	GetShortURLByCode(ctx context.Context, shortCode string) (*models.ShortURL, error)

	UpdateShortURL(ctx context.Context, shortURLID string, patch models.ShortURLPatch) error

	DeleteShortURL(ctx context.Context, shortURLID string) error

	ListUserShortURLs(ctx context.Context, userID string) ([]*models.ShortURL, error)

	AddClicks(ctx context.Context, clicksByCode map[string]int64) error

	GetNumberOfShortenedURLs(ctx context.Context) (int64, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
