package router

import (
	"net/http"

	"github.com/patric-chuzhbe/shortly/internal/models"
)

func (rtr *Router) postAuthSignUp(response http.ResponseWriter, request *http.Request) {
	var signUpRequest models.RegisterRequest
	if err := rtr.decodeAndValidate(request, &signUpRequest); err != nil {
		rtr.writeJSONError(response, http.StatusBadRequest, err.Error())
		return
	}

	usr, token, err := rtr.service.Register(request.Context(), signUpRequest)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.auth.SetAuthCookie(response, token)
	rtr.writeJSON(response, http.StatusCreated, models.RegisterResponse{
		User:  usr,
		Token: token,
	})
}

func (rtr *Router) postAuthSignIn(response http.ResponseWriter, request *http.Request) {
	var signInRequest models.LoginRequest
	if err := rtr.decodeAndValidate(request, &signInRequest); err != nil {
		rtr.writeJSONError(response, http.StatusBadRequest, err.Error())
		return
	}

	token, err := rtr.service.Authenticate(request.Context(), signInRequest.Email, signInRequest.Password)
	if err != nil {
		rtr.writeError(response, err)
		return
	}

	rtr.auth.SetAuthCookie(response, token)
	rtr.writeJSON(response, http.StatusOK, models.LoginResponse{Token: token})
}
