package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/shortly/internal/models"
)

func (rtr *Router) postUser(response http.ResponseWriter, request *http.Request) {
	var createRequest models.CreateUserRequest
	if err := rtr.decodeAndValidate(request, &createRequest); err != nil {
		rtr.writeJSONError(response, http.StatusBadRequest, err.Error())
		return
	}

	usr, err := rtr.service.CreateUser(request.Context(), createRequest)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusCreated, usr)
}

func (rtr *Router) getUsers(response http.ResponseWriter, request *http.Request) {
	users, err := rtr.service.ListUsers(request.Context())
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusOK, users)
}

func (rtr *Router) getUser(response http.ResponseWriter, request *http.Request) {
	usr, err := rtr.service.GetUser(request.Context(), chi.URLParam(request, "userID"))
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusOK, usr)
}

func (rtr *Router) putUser(response http.ResponseWriter, request *http.Request) {
	var updateRequest models.UpdateUserRequest
	if err := rtr.decodeAndValidate(request, &updateRequest); err != nil {
		rtr.writeJSONError(response, http.StatusBadRequest, err.Error())
		return
	}

	userID := chi.URLParam(request, "userID")
	if err := rtr.service.UpdateUser(request.Context(), userID, updateRequest); err != nil {
		rtr.writeError(response, err)
		return
	}

	usr, err := rtr.service.GetUser(request.Context(), userID)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.writeJSON(response, http.StatusOK, usr)
}

func (rtr *Router) deleteUser(response http.ResponseWriter, request *http.Request) {
	if err := rtr.service.DeleteUser(request.Context(), chi.URLParam(request, "userID")); err != nil {
		rtr.writeError(response, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (rtr *Router) getUserURLs(response http.ResponseWriter, request *http.Request) {
	shortURLs, err := rtr.service.ListUserShortURLs(request.Context(), chi.URLParam(request, "userID"))
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	responseItems := make([]models.ShortURLResponse, 0, len(shortURLs))
	for _, shortURL := range shortURLs {
		responseItems = append(responseItems, rtr.shortURLResponse(shortURL))
	}

	rtr.writeJSON(response, http.StatusOK, responseItems)
}
