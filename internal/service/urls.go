package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/shortcode"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

// CreateShortURL derives the short code from the original URL and
// persists the record. The code derivation is deterministic, so an
// already-shortened URL (or a truncation collision with a different URL)
// surfaces as models.ErrConflict from the store's unique index.
func (s *Service) CreateShortURL(ctx context.Context, originalURL string, ownerID *string) (*models.ShortURL, error) {
	shortURL := &models.ShortURL{
		ID:          uuid.New().String(),
		OriginalURL: originalURL,
		ShortCode:   shortcode.Derive(originalURL, s.shortCodeLength),
		CreatedAt:   time.Now(),
		ClickCount:  0,
		UserID:      ownerID,
	}

	if err := s.db.InsertShortURL(ctx, shortURL); err != nil {
		return nil, err
	}

	return shortURL, nil
}

// GetShortURL returns the record with the given ID to its owner or to an
// administrator. A record without an owner is visible to no one.
func (s *Service) GetShortURL(ctx context.Context, shortURLID, requesterID, requesterRole string) (*models.ShortURL, error) {
	shortURL, err := s.db.GetShortURLByID(ctx, shortURLID)
	if err != nil {
		return nil, err
	}

	if shortURL.UserID == nil {
		return nil, ErrForbidden
	}
	if *shortURL.UserID != requesterID && requesterRole != user.RoleAdmin {
		return nil, ErrForbidden
	}

	return shortURL, nil
}

func (s *Service) getOwnedShortURL(ctx context.Context, shortURLID, requesterID string) (*models.ShortURL, error) {
	shortURL, err := s.db.GetShortURLByID(ctx, shortURLID)
	if err != nil {
		return nil, err
	}

	if shortURL.UserID == nil || *shortURL.UserID != requesterID {
		return nil, ErrForbidden
	}

	return shortURL, nil
}

// UpdateShortURL applies a partial update on behalf of the record owner.
// When the original URL changes, the short code is re-derived and written
// together with it in a single statement, so the stored pair stays
// consistent.
func (s *Service) UpdateShortURL(
	ctx context.Context,
	shortURLID string,
	request models.UpdateURLRequest,
	requesterID string,
) (*models.ShortURL, error) {
	if _, err := s.getOwnedShortURL(ctx, shortURLID, requesterID); err != nil {
		return nil, err
	}

	patch := models.ShortURLPatch{
		Expiration: request.Expiration,
	}
	if request.OriginalURL != nil {
		newShortCode := shortcode.Derive(*request.OriginalURL, s.shortCodeLength)
		patch.OriginalURL = request.OriginalURL
		patch.ShortCode = &newShortCode
	}

	if err := s.db.UpdateShortURL(ctx, shortURLID, patch); err != nil {
		return nil, err
	}

	return s.db.GetShortURLByID(ctx, shortURLID)
}

// DeleteShortURL removes the record on behalf of its owner.
func (s *Service) DeleteShortURL(ctx context.Context, shortURLID, requesterID string) error {
	if _, err := s.getOwnedShortURL(ctx, shortURLID, requesterID); err != nil {
		return err
	}

	return s.db.DeleteShortURL(ctx, shortURLID)
}

// Resolve is the public redirect lookup. It returns the original URL for
// a live short code, ErrURLExpired for one past its expiration and
// models.ErrNotFound for an unknown code. On a hit the click is enqueued
// for background accounting and never delays the caller.
func (s *Service) Resolve(ctx context.Context, shortCode string) (string, error) {
	shortURL, err := s.db.GetShortURLByCode(ctx, shortCode)
	if err != nil {
		return "", err
	}

	if shortURL.IsExpired() {
		return "", ErrURLExpired
	}

	s.clicks.Enqueue(shortCode)

	return shortURL.OriginalURL, nil
}

// ListUserShortURLs returns every record owned by the given user.
func (s *Service) ListUserShortURLs(ctx context.Context, userID string) ([]*models.ShortURL, error) {
	return s.db.ListUserShortURLs(ctx, userID)
}
