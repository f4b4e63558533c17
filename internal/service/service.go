// Package service implements the business logic of the shortener:
// registration and authentication of users, CRUD over user and short URL
// records with ownership enforcement, and the public redirect path with
// best-effort click accounting.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

type usersKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error

	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	ListUsers(ctx context.Context) ([]*user.User, error)

	UpdateUser(ctx context.Context, userID string, patch models.UserPatch) error

	DeleteUser(ctx context.Context, userID string) error
}

type shortURLsKeeper interface {
	InsertShortURL(ctx context.Context, shortURL *models.ShortURL) error

	GetShortURLByID(ctx context.Context, shortURLID string) (*models.ShortURL, error)

	GetShortURLByCode(ctx context.Context, shortCode string) (*models.ShortURL, error)

	UpdateShortURL(ctx context.Context, shortURLID string, patch models.ShortURLPatch) error

	DeleteShortURL(ctx context.Context, shortURLID string) error

	ListUserShortURLs(ctx context.Context, userID string) ([]*models.ShortURL, error)
}

type statsKeeper interface {
	GetNumberOfShortenedURLs(ctx context.Context) (int64, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	usersKeeper
	shortURLsKeeper
	statsKeeper
	pinger
}

type tokenIssuer interface {
	Issue(userID, role string) (string, error)
}

type clickEnqueuer interface {
	Enqueue(shortCode string)
}

// ErrInvalidCredentials is returned by Authenticate for an unknown email
// and for a wrong password alike, so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrForbidden is returned when the requester is neither the owner of the
// record nor otherwise entitled to it.
var ErrForbidden = errors.New("access to the record is forbidden")

// ErrURLExpired is returned by Resolve for a short code whose expiration
// instant has passed.
var ErrURLExpired = errors.New("the short URL is expired")

// Service carries the business logic over a storage implementation, a
// token issuer and the click accounting queue.
type Service struct {
	db              storage
	tokens          tokenIssuer
	clicks          clickEnqueuer
	shortURLBase    string
	shortCodeLength int
}

// New assembles a Service.
func New(
	db storage,
	tokens tokenIssuer,
	clicks clickEnqueuer,
	shortURLBase string,
	shortCodeLength int,
) *Service {
	return &Service{
		db:              db,
		tokens:          tokens,
		clicks:          clicks,
		shortURLBase:    shortURLBase,
		shortCodeLength: shortCodeLength,
	}
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetInternalStats returns totals of shortened URLs and users.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	urls, err := s.db.GetNumberOfShortenedURLs(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		URLs:  urls,
		Users: users,
	}, nil
}

// GetShortURLAddress renders the public address of a short code.
func (s *Service) GetShortURLAddress(shortCode string) string {
	return strings.TrimRight(s.shortURLBase, "/") + "/urls/s/" + shortCode
}
