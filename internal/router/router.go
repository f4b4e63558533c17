// Package router wires the HTTP surface of the shortener: the public
// sign-up, sign-in and redirect endpoints, the owner-scoped short URL
// CRUD, the administrative user CRUD and the trusted-subnet-only stats
// endpoint.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/shortly/internal/gzippedhttp"
	"github.com/patric-chuzhbe/shortly/internal/logger"
	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/service"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

type shortener interface {
	Register(ctx context.Context, request models.RegisterRequest) (*user.User, string, error)

	Authenticate(ctx context.Context, email, password string) (string, error)

	CreateUser(ctx context.Context, request models.CreateUserRequest) (*user.User, error)

	GetUser(ctx context.Context, userID string) (*user.User, error)

	ListUsers(ctx context.Context) ([]*user.User, error)

	UpdateUser(ctx context.Context, userID string, request models.UpdateUserRequest) error

	DeleteUser(ctx context.Context, userID string) error

	CreateShortURL(ctx context.Context, originalURL string, ownerID *string) (*models.ShortURL, error)

	GetShortURL(ctx context.Context, shortURLID, requesterID, requesterRole string) (*models.ShortURL, error)

	UpdateShortURL(
		ctx context.Context,
		shortURLID string,
		request models.UpdateURLRequest,
		requesterID string,
	) (*models.ShortURL, error)

	DeleteShortURL(ctx context.Context, shortURLID, requesterID string) error

	ListUserShortURLs(ctx context.Context, userID string) ([]*models.ShortURL, error)

	Resolve(ctx context.Context, shortCode string) (string, error)

	GetShortURLAddress(shortCode string) string

	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)

	Ping(ctx context.Context) error
}

type authenticator interface {
	RequireRole(requiredRole string) func(http.Handler) http.Handler

	SetAuthCookie(response http.ResponseWriter, tokenString string)
}

type requestTruster interface {
	RequireTrusted(h http.Handler) http.Handler
}

// Router keeps the handler dependencies together.
type Router struct {
	service  shortener
	auth     authenticator
	validate *validator.Validate
}

// New assembles the chi mux with logging and gzip middleware and every
// route of the service.
func New(svc shortener, authMiddleware authenticator, ipChecker requestTruster) *chi.Mux {
	rtr := &Router{
		service:  svc,
		auth:     authMiddleware,
		validate: validator.New(),
	}

	mux := chi.NewRouter()
	mux.Use(logger.WithLoggingHTTPMiddleware)
	mux.Use(gzippedhttp.DecompressRequest)
	mux.Use(gzippedhttp.CompressResponse)

	mux.Route(`/auth`, func(mux chi.Router) {
		mux.Post(`/sign-up`, rtr.postAuthSignUp)
		mux.Post(`/sign-in`, rtr.postAuthSignIn)
	})

	mux.Route(`/urls`, func(mux chi.Router) {
		mux.Get(`/s/{shortCode}`, rtr.getRedirectToOriginalURL)

		mux.Group(func(mux chi.Router) {
			mux.Use(authMiddleware.RequireRole(user.RoleUser))
			mux.Post(`/`, rtr.postURL)
			mux.Get(`/{urlID}`, rtr.getURL)
			mux.Put(`/{urlID}/update`, rtr.putURLUpdate)
			mux.Delete(`/{urlID}`, rtr.deleteURL)
		})
	})

	mux.Route(`/users`, func(mux chi.Router) {
		mux.Use(authMiddleware.RequireRole(user.RoleAdmin))
		mux.Post(`/`, rtr.postUser)
		mux.Get(`/`, rtr.getUsers)
		mux.Get(`/{userID}`, rtr.getUser)
		mux.Put(`/{userID}`, rtr.putUser)
		mux.Delete(`/{userID}`, rtr.deleteUser)
		mux.Get(`/{userID}/urls`, rtr.getUserURLs)
	})

	mux.With(ipChecker.RequireTrusted).Get(`/internal/stats`, rtr.getInternalStats)

	mux.Get(`/ping`, rtr.getPing)

	return mux
}

func (rtr *Router) getPing(response http.ResponseWriter, request *http.Request) {
	if err := rtr.service.Ping(request.Context()); err != nil {
		rtr.writeError(response, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (rtr *Router) getInternalStats(response http.ResponseWriter, request *http.Request) {
	stats, err := rtr.service.GetInternalStats(request.Context())
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusOK, stats)
}

// decodeAndValidate parses the JSON request body into dst and runs the
// struct-tag validation over it.
func (rtr *Router) decodeAndValidate(request *http.Request, dst interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(dst); err != nil {
		return err
	}

	return rtr.validate.Struct(dst)
}

func (rtr *Router) writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("error while response encoding:", err)
	}
}

func (rtr *Router) writeJSONError(response http.ResponseWriter, statusCode int, message string) {
	rtr.writeJSON(response, statusCode, models.ErrorResponse{Error: message})
}

// writeError translates the sentinel errors of the lower layers into
// status codes. Anything unrecognized is logged and reported as a
// generic server error so internal diagnostics stay internal.
func (rtr *Router) writeError(response http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrConflict):
		rtr.writeJSONError(response, http.StatusConflict, err.Error())

	case errors.Is(err, models.ErrNotFound):
		rtr.writeJSONError(response, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrForbidden):
		rtr.writeJSONError(response, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		rtr.writeJSONError(response, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrURLExpired):
		rtr.writeJSONError(response, http.StatusGone, err.Error())

	default:
		logger.Log.Errorln("unexpected error in the HTTP handler:", err)
		rtr.writeJSONError(response, http.StatusInternalServerError, "internal server error")
	}
}
