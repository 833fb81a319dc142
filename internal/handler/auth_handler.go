/*
Package handler provides the HTTP handlers and routing for the bookshelf server.

Handlers decode input, hand it to the operation layer together with the
request's Identity, and write the result in the standard envelope.
*/
package handler

import (
	"net/http"

	"bookshelf/internal/app/service"
	"bookshelf/internal/pkg/req"
	"bookshelf/internal/pkg/resp"
)

// HandleRegister creates an account and returns it with a credential.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input service.RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, err := deps.Service.Register(r.Context(), input)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondCreated(w, r, result)
	}
}

// HandleLogin exchanges an email and password for a credential.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input service.LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, err := deps.Service.Login(r.Context(), input)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, result)
	}
}
