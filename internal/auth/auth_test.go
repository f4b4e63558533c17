package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

const testCookieName = "access_token"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestAuth(ttl time.Duration) *Auth {
	return New(testCookieName, testSecret, ttl)
}

func TestIssueAndParse(t *testing.T) {
	theAuth := newTestAuth(time.Hour)

	tokenString, err := theAuth.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	claims, err := theAuth.ParseToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, user.RoleUser, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	theAuth := newTestAuth(time.Hour)

	tokenString, err := theAuth.BuildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: "user-1",
		Role:   user.RoleUser,
	})
	require.NoError(t, err)

	_, err = theAuth.ParseToken(tokenString)
	assert.Error(t, err)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	theAuth := newTestAuth(time.Hour)
	foreignAuth := New(testCookieName, []byte("another-secret-key-another-secret"), time.Hour)

	tokenString, err := foreignAuth.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	_, err = theAuth.ParseToken(tokenString)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	theAuth := newTestAuth(time.Hour)

	_, err := theAuth.ParseToken("not.a.token")
	assert.Error(t, err)
}

func requireRoleResponse(t *testing.T, theAuth *Auth, requiredRole string, decorateRequest func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var claimsSeen *Claims
	handler := theAuth.RequireRole(requiredRole)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claimsSeen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if decorateRequest != nil {
		decorateRequest(request)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code == http.StatusOK {
		require.NotNil(t, claimsSeen)
	}

	return recorder
}

func TestRequireRoleMissingToken(t *testing.T) {
	recorder := requireRoleResponse(t, newTestAuth(time.Hour), user.RoleUser, nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	var payload models.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, "missing access token", payload.Error)
}

func TestRequireRoleFromCookie(t *testing.T) {
	theAuth := newTestAuth(time.Hour)
	tokenString, err := theAuth.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	recorder := requireRoleResponse(t, theAuth, user.RoleUser, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: testCookieName, Value: tokenString})
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRequireRoleFromAuthorizationHeader(t *testing.T) {
	theAuth := newTestAuth(time.Hour)
	tokenString, err := theAuth.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	recorder := requireRoleResponse(t, theAuth, user.RoleUser, func(r *http.Request) {
		r.Header.Set("Authorization", tokenString)
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRequireRoleFromBearerAuthorizationHeader(t *testing.T) {
	theAuth := newTestAuth(time.Hour)
	tokenString, err := theAuth.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	recorder := requireRoleResponse(t, theAuth, user.RoleUser, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenString)
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRequireRoleExactMatchOnly(t *testing.T) {
	theAuth := newTestAuth(time.Hour)
	tokenString, err := theAuth.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	recorder := requireRoleResponse(t, theAuth, user.RoleAdmin, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: testCookieName, Value: tokenString})
	})

	assert.Equal(t, http.StatusForbidden, recorder.Code)

	var payload models.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Contains(t, payload.Error, user.RoleAdmin)
	assert.Contains(t, payload.Error, user.RoleUser)
}

func TestRequireRoleInvalidToken(t *testing.T) {
	theAuth := newTestAuth(time.Hour)

	recorder := requireRoleResponse(t, theAuth, user.RoleUser, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: testCookieName, Value: "corrupted"})
	})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
