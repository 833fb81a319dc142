package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"bookshelf/internal/pkg/auth"
	"bookshelf/internal/pkg/logx"
	"bookshelf/internal/pkg/resp"
)

// Router builds the HTTP routing table. Every /api request passes through the
// identity middleware exactly once before reaching a handler.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "bookshelf",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.IdentityMiddleware(deps.Authenticator))

		api.Route("/auth", func(a chi.Router) {
			a.Post("/register", HandleRegister(deps))
			a.Post("/login", HandleLogin(deps))
		})

		api.Route("/users", func(u chi.Router) {
			u.Get("/me", HandleGetMe(deps))
			u.Post("/me/books", HandleSaveBook(deps))
			u.Delete("/me/books/{bookId}", HandleRemoveBook(deps))
			u.Get("/{idOrUsername}", HandleGetProfile(deps))
		})

		api.Get("/books/search", HandleSearchBooks(deps))
	})

	return r
}
