package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/pkg/auth"
	"bookshelf/internal/pkg/resp"
)

// HandleGetMe returns the caller's own profile.
func HandleGetMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := deps.Service.Me(r.Context(), auth.FromContext(r.Context()))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, profile)
	}
}

// HandleGetProfile returns any user's profile by id or username.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := deps.Service.Profile(r.Context(), chi.URLParam(r, "idOrUsername"))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, profile)
	}
}
