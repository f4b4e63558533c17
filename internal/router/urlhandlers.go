package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/shortly/internal/auth"
	"github.com/patric-chuzhbe/shortly/internal/models"
)

func (rtr *Router) shortURLResponse(shortURL *models.ShortURL) models.ShortURLResponse {
	return models.ShortURLResponse{
		ShortURL: *shortURL,
		Address:  rtr.service.GetShortURLAddress(shortURL.ShortCode),
	}
}

func (rtr *Router) postURL(response http.ResponseWriter, request *http.Request) {
	claims, found := auth.ClaimsFromContext(request.Context())
	if !found {
		rtr.writeJSONError(response, http.StatusUnauthorized, "missing access token")
		return
	}

	var createRequest models.CreateURLRequest
	if err := rtr.decodeAndValidate(request, &createRequest); err != nil {
		rtr.writeJSONError(response, http.StatusBadRequest, err.Error())
		return
	}

	shortURL, err := rtr.service.CreateShortURL(request.Context(), createRequest.OriginalURL, &claims.UserID)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusCreated, rtr.shortURLResponse(shortURL))
}

func (rtr *Router) getURL(response http.ResponseWriter, request *http.Request) {
	claims, found := auth.ClaimsFromContext(request.Context())
	if !found {
		rtr.writeJSONError(response, http.StatusUnauthorized, "missing access token")
		return
	}

	shortURL, err := rtr.service.GetShortURL(
		request.Context(),
		chi.URLParam(request, "urlID"),
		claims.UserID,
		claims.Role,
	)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusOK, rtr.shortURLResponse(shortURL))
}

func (rtr *Router) putURLUpdate(response http.ResponseWriter, request *http.Request) {
	claims, found := auth.ClaimsFromContext(request.Context())
	if !found {
		rtr.writeJSONError(response, http.StatusUnauthorized, "missing access token")
		return
	}

	var updateRequest models.UpdateURLRequest
	if err := rtr.decodeAndValidate(request, &updateRequest); err != nil {
		rtr.writeJSONError(response, http.StatusBadRequest, err.Error())
		return
	}

	shortURL, err := rtr.service.UpdateShortURL(
		request.Context(),
		chi.URLParam(request, "urlID"),
		updateRequest,
		claims.UserID,
	)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusOK, rtr.shortURLResponse(shortURL))
}

func (rtr *Router) deleteURL(response http.ResponseWriter, request *http.Request) {
	claims, found := auth.ClaimsFromContext(request.Context())
	if !found {
		rtr.writeJSONError(response, http.StatusUnauthorized, "missing access token")
		return
	}

	err := rtr.service.DeleteShortURL(request.Context(), chi.URLParam(request, "urlID"), claims.UserID)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (rtr *Router) getRedirectToOriginalURL(response http.ResponseWriter, request *http.Request) {
	originalURL, err := rtr.service.Resolve(request.Context(), chi.URLParam(request, "shortCode"))
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	http.Redirect(response, request, originalURL, http.StatusFound)
}
