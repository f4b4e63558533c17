// Package auth provides the session token service and the authorization
// middleware for HTTP requests. Tokens are HMAC-signed JWTs carrying the
// user's identity and role; they are transported in an HTTP-only cookie
// with an Authorization header fallback.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/patric-chuzhbe/shortly/internal/models"
)

// Auth issues and validates JWT session tokens and gates protected
// route groups by required role. It holds no mutable state beyond the
// read-only signing secret, so a single instance is safe for concurrent use.
type Auth struct {
	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// signingSecretKey is the key used to sign and verify JWTs.
	signingSecretKey []byte

	// tokenTTL bounds the lifetime of issued tokens.
	tokenTTL time.Duration
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds identity and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// ClaimsKey is the context key under which the middleware stores the
// decoded *Claims for downstream handlers.
const ClaimsKey ContextKey = "authClaims"

// New creates a new Auth service with the given cookie name, JWT signing
// secret and token lifetime.
func New(authCookieName string, signingSecretKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		authCookieName:   authCookieName,
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
	}
}

// Issue produces a signed token for the given user identity and role,
// expiring tokenTTL from now.
func (a *Auth) Issue(userID, role string) (string, error) {
	return a.BuildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Role:   role,
	})
}

// BuildJWTString signs the given claims with HS256 and returns the compact token.
func (a *Auth) BuildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates a compact token and returns its claims.
// Validation fails closed: signature mismatch, structural corruption and
// expiry all yield an error and never a partial claim.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	return claims, nil
}

// SetAuthCookie attaches the token to the response as an HTTP-only
// cookie covering the whole site.
func (a *Auth) SetAuthCookie(response http.ResponseWriter, tokenString string) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    tokenString,
			Path:     "/",
			HttpOnly: true,
		},
	)
}

// RequireRole is an HTTP middleware gating a route group by an exact role
// match. It extracts the token from the auth cookie (or the Authorization
// header), validates it, compares the decoded role against requiredRole
// and stores the claims in the request context on success.
func (a *Auth) RequireRole(requiredRole string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		middleware := func(response http.ResponseWriter, request *http.Request) {
			tokenString := a.getTokenStringFromCookieOrAuthorizationHeader(request)
			if tokenString == "" {
				writeJSONError(response, http.StatusUnauthorized, "missing access token")

				return
			}

			claims, err := a.ParseToken(tokenString)
			if err != nil {
				writeJSONError(
					response,
					http.StatusUnauthorized,
					fmt.Sprintf("invalid or expired token: %v", err),
				)

				return
			}

			if claims.Role != requiredRole {
				writeJSONError(
					response,
					http.StatusForbidden,
					fmt.Sprintf("access denied: required role %q, but found %q", requiredRole, claims.Role),
				)

				return
			}

			ctx := context.WithValue(request.Context(), ClaimsKey, claims)
			h.ServeHTTP(response, request.WithContext(ctx))
		}

		return http.HandlerFunc(middleware)
	}
}

// ClaimsFromContext retrieves the claims stored by RequireRole.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)

	return claims, ok
}

func (a *Auth) getTokenStringFromCookieOrAuthorizationHeader(request *http.Request) string {
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// The header may carry either the bare token or the conventional
	// `Bearer <token>` form.
	return strings.TrimPrefix(request.Header.Get("Authorization"), "Bearer ")
}

func writeJSONError(response http.ResponseWriter, statusCode int, message string) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	_ = json.NewEncoder(response).Encode(models.ErrorResponse{Error: message})
}
