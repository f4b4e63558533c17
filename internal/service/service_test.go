package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/shortly/internal/db/memorystorage"
	"github.com/patric-chuzhbe/shortly/internal/mockstorage"
	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/passhash"
	"github.com/patric-chuzhbe/shortly/internal/shortcode"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

type tokenIssuerStub struct{}

func (tokenIssuerStub) Issue(userID, role string) (string, error) {
	return "token:" + userID + ":" + role, nil
}

type clickEnqueuerStub struct {
	mu    sync.Mutex
	codes []string
}

func (c *clickEnqueuerStub) Enqueue(shortCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = append(c.codes, shortCode)
}

func (c *clickEnqueuerStub) enqueued() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.codes...)
}

func newTestService(t *testing.T) (*Service, *clickEnqueuerStub) {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	clicks := &clickEnqueuerStub{}

	return New(db, tokenIssuerStub{}, clicks, "http://localhost:8080", shortcode.DefaultLength), clicks
}

func registerTestUser(t *testing.T, svc *Service, username, email string) *user.User {
	t.Helper()

	usr, token, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	return usr
}

func TestRegisterAssignsDefaultRoleAndHashesPassword(t *testing.T) {
	svc, _ := newTestService(t)

	usr, token, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice",
		Email:    "a@x.com",
		Password: "pw",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{user.RoleUser}, usr.Roles)
	assert.True(t, usr.IsActive)
	assert.Equal(t, "token:"+usr.ID+":user", token)

	assert.NotEqual(t, "pw", usr.PasswordHash)
	passwordMatches, err := passhash.Verify("pw", usr.PasswordHash)
	require.NoError(t, err)
	assert.True(t, passwordMatches)
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	svc, _ := newTestService(t)

	first := registerTestUser(t, svc, "alice", "a@x.com")

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "another",
		Email:    "a@x.com",
		Password: "pw",
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	// The first record stays intact.
	kept, err := svc.GetUser(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", kept.Username)
}

func TestAuthenticateDoesNotDistinguishFailureCauses(t *testing.T) {
	svc, _ := newTestService(t)
	registerTestUser(t, svc, "alice", "a@x.com")

	_, wrongPasswordErr := svc.Authenticate(context.Background(), "a@x.com", "wrong")
	_, unknownEmailErr := svc.Authenticate(context.Background(), "nobody@x.com", "s3cret")

	assert.ErrorIs(t, wrongPasswordErr, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmailErr, ErrInvalidCredentials)
	assert.Equal(t, wrongPasswordErr.Error(), unknownEmailErr.Error())
}

func TestAuthenticateRejectsDeactivatedUser(t *testing.T) {
	svc, _ := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	isActive := false
	require.NoError(t, svc.UpdateUser(context.Background(), usr.ID, models.UpdateUserRequest{IsActive: &isActive}))

	_, err := svc.Authenticate(context.Background(), "a@x.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, _ := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	token, err := svc.Authenticate(context.Background(), "a@x.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "token:"+usr.ID+":user", token)
}

func TestUpdateUserRehashesSuppliedPassword(t *testing.T) {
	svc, _ := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	newPassword := "brand-new"
	require.NoError(t, svc.UpdateUser(context.Background(), usr.ID, models.UpdateUserRequest{Password: &newPassword}))

	_, err := svc.Authenticate(context.Background(), "a@x.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "a@x.com", "brand-new")
	assert.NoError(t, err)
}

func TestCreateAndResolveRoundTrip(t *testing.T) {
	svc, clicks := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	shortURL, err := svc.CreateShortURL(context.Background(), "https://example.com", &usr.ID)
	require.NoError(t, err)
	assert.Equal(t, shortcode.Derive("https://example.com", shortcode.DefaultLength), shortURL.ShortCode)
	assert.EqualValues(t, 0, shortURL.ClickCount)

	originalURL, err := svc.Resolve(context.Background(), shortURL.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", originalURL)
	assert.Equal(t, []string{shortURL.ShortCode}, clicks.enqueued())
}

func TestCreateShortURLConflictOnExistingCode(t *testing.T) {
	svc, _ := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	_, err := svc.CreateShortURL(context.Background(), "https://example.com", &usr.ID)
	require.NoError(t, err)

	_, err = svc.CreateShortURL(context.Background(), "https://example.com", &usr.ID)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestResolveUnknownCode(t *testing.T) {
	svc, clicks := newTestService(t)

	_, err := svc.Resolve(context.Background(), "missing123")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, clicks.enqueued())
}

func TestResolveExpiredCode(t *testing.T) {
	svc, clicks := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	shortURL, err := svc.CreateShortURL(context.Background(), "https://example.com", &usr.ID)
	require.NoError(t, err)

	expiration := time.Now().Add(-time.Minute)
	_, err = svc.UpdateShortURL(
		context.Background(),
		shortURL.ID,
		models.UpdateURLRequest{Expiration: &expiration},
		usr.ID,
	)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), shortURL.ShortCode)
	assert.ErrorIs(t, err, ErrURLExpired)
	assert.Empty(t, clicks.enqueued())
}

func TestUpdateShortURLExpirationOnlyKeepsCode(t *testing.T) {
	svc, _ := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	created, err := svc.CreateShortURL(context.Background(), "https://example.com", &usr.ID)
	require.NoError(t, err)

	expiration := time.Now().Add(time.Hour)
	updated, err := svc.UpdateShortURL(
		context.Background(),
		created.ID,
		models.UpdateURLRequest{Expiration: &expiration},
		usr.ID,
	)
	require.NoError(t, err)

	assert.Equal(t, created.OriginalURL, updated.OriginalURL)
	assert.Equal(t, created.ShortCode, updated.ShortCode)
	require.NotNil(t, updated.Expiration)
	assert.WithinDuration(t, expiration, *updated.Expiration, time.Second)
}

func TestUpdateShortURLRederivesCodeWithURL(t *testing.T) {
	svc, _ := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	created, err := svc.CreateShortURL(context.Background(), "https://example.com", &usr.ID)
	require.NoError(t, err)

	newURL := "https://example.org/changed"
	updated, err := svc.UpdateShortURL(
		context.Background(),
		created.ID,
		models.UpdateURLRequest{OriginalURL: &newURL},
		usr.ID,
	)
	require.NoError(t, err)

	assert.Equal(t, newURL, updated.OriginalURL)
	assert.Equal(t, shortcode.Derive(newURL, shortcode.DefaultLength), updated.ShortCode)
	assert.NotEqual(t, created.ShortCode, updated.ShortCode)

	// The old code no longer resolves, the new one does.
	_, err = svc.Resolve(context.Background(), created.ShortCode)
	assert.ErrorIs(t, err, models.ErrNotFound)

	originalURL, err := svc.Resolve(context.Background(), updated.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, newURL, originalURL)
}

func TestOwnershipEnforcement(t *testing.T) {
	svc, _ := newTestService(t)
	owner := registerTestUser(t, svc, "alice", "a@x.com")
	stranger := registerTestUser(t, svc, "bob", "b@x.com")

	shortURL, err := svc.CreateShortURL(context.Background(), "https://example.com", &owner.ID)
	require.NoError(t, err)

	newURL := "https://evil.example.com"
	_, err = svc.UpdateShortURL(
		context.Background(),
		shortURL.ID,
		models.UpdateURLRequest{OriginalURL: &newURL},
		stranger.ID,
	)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.DeleteShortURL(context.Background(), shortURL.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetShortURL(context.Background(), shortURL.ID, stranger.ID, user.RoleUser)
	assert.ErrorIs(t, err, ErrForbidden)

	// The record is untouched by the failed mutations.
	kept, err := svc.GetShortURL(context.Background(), shortURL.ID, owner.ID, user.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", kept.OriginalURL)
}

func TestGetShortURLAdminSeesForeignOwnedRecord(t *testing.T) {
	svc, _ := newTestService(t)
	owner := registerTestUser(t, svc, "alice", "a@x.com")
	admin := registerTestUser(t, svc, "root", "root@x.com")

	shortURL, err := svc.CreateShortURL(context.Background(), "https://example.com", &owner.ID)
	require.NoError(t, err)

	fetched, err := svc.GetShortURL(context.Background(), shortURL.ID, admin.ID, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, shortURL.ID, fetched.ID)
}

func TestGetShortURLUnownedRecordIsForbiddenToEveryone(t *testing.T) {
	svc, _ := newTestService(t)
	admin := registerTestUser(t, svc, "root", "root@x.com")

	shortURL, err := svc.CreateShortURL(context.Background(), "https://example.com", nil)
	require.NoError(t, err)

	_, err = svc.GetShortURL(context.Background(), shortURL.ID, admin.ID, user.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListUserShortURLs(t *testing.T) {
	svc, _ := newTestService(t)
	owner := registerTestUser(t, svc, "alice", "a@x.com")
	other := registerTestUser(t, svc, "bob", "b@x.com")

	_, err := svc.CreateShortURL(context.Background(), "https://example.com/1", &owner.ID)
	require.NoError(t, err)
	_, err = svc.CreateShortURL(context.Background(), "https://example.com/2", &owner.ID)
	require.NoError(t, err)
	_, err = svc.CreateShortURL(context.Background(), "https://example.com/3", &other.ID)
	require.NoError(t, err)

	owned, err := svc.ListUserShortURLs(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestGetInternalStats(t *testing.T) {
	svc, _ := newTestService(t)
	usr := registerTestUser(t, svc, "alice", "a@x.com")

	_, err := svc.CreateShortURL(context.Background(), "https://example.com", &usr.ID)
	require.NoError(t, err)

	stats, err := svc.GetInternalStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.URLs)
	assert.EqualValues(t, 1, stats.Users)
}

func TestRegisterSurfacesStorageFailure(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("CreateUser", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := New(db, tokenIssuerStub{}, &clickEnqueuerStub{}, "http://localhost:8080", shortcode.DefaultLength)

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice",
		Email:    "a@x.com",
		Password: "pw",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrConflict)
	db.AssertExpectations(t)
}

func TestGetShortURLAddress(t *testing.T) {
	svc, _ := newTestService(t)

	assert.Equal(t, "http://localhost:8080/urls/s/abc123", svc.GetShortURLAddress("abc123"))
}
