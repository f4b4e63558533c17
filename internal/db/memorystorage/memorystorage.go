// Package memorystorage provides an in-memory implementation of the storage
// interface. It backs the service when no database DSN is configured and is
// used extensively by tests. Uniqueness of usernames, emails and short codes
// is enforced the same way the relational schema does, so callers observe
// identical conflict behavior.
package memorystorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

// MemoryStorage keeps all records in maps guarded by a single RWMutex.
type MemoryStorage struct {
	mu sync.RWMutex

	users map[string]*user.User

	shortURLs map[string]*models.ShortURL

	// shortURLIDByCode indexes shortURLs by their unique short code.
	shortURLIDByCode map[string]string
}

// New returns an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:            map[string]*user.User{},
		shortURLs:        map[string]*models.ShortURL{},
		shortURLIDByCode: map[string]string{},
	}, nil
}

func cloneUser(usr *user.User) *user.User {
	clone := *usr
	clone.Roles = append([]string{}, usr.Roles...)

	return &clone
}

func cloneShortURL(shortURL *models.ShortURL) *models.ShortURL {
	clone := *shortURL
	if shortURL.Expiration != nil {
		expiration := *shortURL.Expiration
		clone.Expiration = &expiration
	}
	if shortURL.UserID != nil {
		userID := *shortURL.UserID
		clone.UserID = &userID
	}

	return &clone
}

func (s *MemoryStorage) userFieldsTaken(username, email, excludeID string) bool {
	for _, existing := range s.users {
		if existing.ID == excludeID {
			continue
		}
		if (username != "" && existing.Username == username) ||
			(email != "" && existing.Email == email) {
			return true
		}
	}

	return false
}

// CreateUser stores a new user, reporting models.ErrConflict on a
// username or email collision.
func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userFieldsTaken(usr.Username, usr.Email, "") {
		return models.ErrConflict
	}

	s.users[usr.ID] = cloneUser(usr)

	return nil
}

// GetUserByID returns the user with the given ID or models.ErrNotFound.
func (s *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.users[userID]
	if !found {
		return nil, models.ErrNotFound
	}

	return cloneUser(usr), nil
}

// GetUserByEmail returns the user with the given email or models.ErrNotFound.
func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, usr := range s.users {
		if usr.Email == email {
			return cloneUser(usr), nil
		}
	}

	return nil, models.ErrNotFound
}

// ListUsers returns all users ordered by creation time.
func (s *MemoryStorage) ListUsers(ctx context.Context) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*user.User, 0, len(s.users))
	for _, usr := range s.users {
		result = append(result, cloneUser(usr))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// UpdateUser applies a structured partial update to a stored user.
func (s *MemoryStorage) UpdateUser(ctx context.Context, userID string, patch models.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	usr, found := s.users[userID]
	if !found {
		return models.ErrNotFound
	}

	username := ""
	if patch.Username != nil {
		username = *patch.Username
	}
	email := ""
	if patch.Email != nil {
		email = *patch.Email
	}
	if s.userFieldsTaken(username, email, userID) {
		return models.ErrConflict
	}

	if patch.Username != nil {
		usr.Username = *patch.Username
	}
	if patch.Email != nil {
		usr.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		usr.PasswordHash = *patch.PasswordHash
	}
	if patch.IsActive != nil {
		usr.IsActive = *patch.IsActive
	}
	usr.UpdatedAt = time.Now()

	return nil
}

// DeleteUser removes the user with the given ID or reports models.ErrNotFound.
func (s *MemoryStorage) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.users[userID]; !found {
		return models.ErrNotFound
	}
	delete(s.users, userID)

	return nil
}

// InsertShortURL stores a new short URL record, reporting models.ErrConflict
// when its short code is already taken.
func (s *MemoryStorage) InsertShortURL(ctx context.Context, shortURL *models.ShortURL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.shortURLIDByCode[shortURL.ShortCode]; taken {
		return models.ErrConflict
	}

	s.shortURLs[shortURL.ID] = cloneShortURL(shortURL)
	s.shortURLIDByCode[shortURL.ShortCode] = shortURL.ID

	return nil
}

// GetShortURLByID returns the record with the given ID or models.ErrNotFound.
func (s *MemoryStorage) GetShortURLByID(ctx context.Context, shortURLID string) (*models.ShortURL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shortURL, found := s.shortURLs[shortURLID]
	if !found {
		return nil, models.ErrNotFound
	}

	return cloneShortURL(shortURL), nil
}

// GetShortURLByCode returns the record with the given short code or models.ErrNotFound.
func (s *MemoryStorage) GetShortURLByCode(ctx context.Context, shortCode string) (*models.ShortURL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shortURLID, found := s.shortURLIDByCode[shortCode]
	if !found {
		return nil, models.ErrNotFound
	}

	return cloneShortURL(s.shortURLs[shortURLID]), nil
}

// UpdateShortURL applies a structured partial update; the original URL and
// the short code arrive in the same patch, so both change together.
func (s *MemoryStorage) UpdateShortURL(ctx context.Context, shortURLID string, patch models.ShortURLPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shortURL, found := s.shortURLs[shortURLID]
	if !found {
		return models.ErrNotFound
	}

	if patch.ShortCode != nil {
		if takenBy, taken := s.shortURLIDByCode[*patch.ShortCode]; taken && takenBy != shortURLID {
			return models.ErrConflict
		}
		delete(s.shortURLIDByCode, shortURL.ShortCode)
		shortURL.ShortCode = *patch.ShortCode
		s.shortURLIDByCode[shortURL.ShortCode] = shortURLID
	}
	if patch.OriginalURL != nil {
		shortURL.OriginalURL = *patch.OriginalURL
	}
	if patch.Expiration != nil {
		expiration := *patch.Expiration
		shortURL.Expiration = &expiration
	}

	return nil
}

// DeleteShortURL removes the record with the given ID or reports models.ErrNotFound.
func (s *MemoryStorage) DeleteShortURL(ctx context.Context, shortURLID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shortURL, found := s.shortURLs[shortURLID]
	if !found {
		return models.ErrNotFound
	}
	delete(s.shortURLIDByCode, shortURL.ShortCode)
	delete(s.shortURLs, shortURLID)

	return nil
}

// ListUserShortURLs returns all records owned by the given user ordered by
// creation time.
func (s *MemoryStorage) ListUserShortURLs(ctx context.Context, userID string) ([]*models.ShortURL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := funk.Filter(funk.Values(s.shortURLs), func(shortURL *models.ShortURL) bool {
		return shortURL.UserID != nil && *shortURL.UserID == userID
	}).([]*models.ShortURL)

	result := make([]*models.ShortURL, 0, len(owned))
	for _, shortURL := range owned {
		result = append(result, cloneShortURL(shortURL))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// AddClicks applies aggregated click increments per short code. Codes
// deleted since the click happened are skipped.
func (s *MemoryStorage) AddClicks(ctx context.Context, clicksByCode map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for shortCode, clicks := range clicksByCode {
		shortURLID, found := s.shortURLIDByCode[shortCode]
		if !found {
			continue
		}
		s.shortURLs[shortURLID].ClickCount += clicks
	}

	return nil
}

// GetNumberOfShortenedURLs returns the total amount of short URL records.
func (s *MemoryStorage) GetNumberOfShortenedURLs(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.shortURLs)), nil
}

// GetNumberOfUsers returns the total amount of user records.
func (s *MemoryStorage) GetNumberOfUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.users)), nil
}

// Ping always succeeds for the in-memory storage.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}
