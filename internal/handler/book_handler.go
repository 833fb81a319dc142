package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/app/book"
	"bookshelf/internal/pkg/auth"
	"bookshelf/internal/pkg/errs"
	"bookshelf/internal/pkg/req"
	"bookshelf/internal/pkg/resp"
)

// HandleSearchBooks runs a catalog search for the q query parameter.
func HandleSearchBooks(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books, err := deps.Service.SearchCatalog(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, books)
	}
}

// HandleSaveBook adds the posted book to the caller's collection.
func HandleSaveBook(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.FromContext(r.Context())
		if !identity.IsAuthenticated() {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		var input book.Book
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		profile, err := deps.Service.SaveBook(r.Context(), identity, input)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, profile)
	}
}

// HandleRemoveBook deletes a book from the caller's collection.
func HandleRemoveBook(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookID, err := bookIDParam(r)
		if err != nil {
			resp.RespondError(w, r, errs.Wrap(errs.ErrInvalidParams, err))
			return
		}

		profile, err := deps.Service.RemoveBook(r.Context(), auth.FromContext(r.Context()), bookID)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, profile)
	}
}

// bookIDParam returns the decoded bookId segment. chi routes on RawPath when
// the request carried escapes such as %2F, leaving the segment encoded.
func bookIDParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "bookId")
	if r.URL.RawPath == "" {
		return raw, nil
	}
	return url.PathUnescape(raw)
}
