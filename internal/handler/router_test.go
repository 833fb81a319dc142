package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/app/catalog"
	"bookshelf/internal/app/service"
	"bookshelf/internal/app/user"
	"bookshelf/internal/configs"
	"bookshelf/internal/pkg/auth"
	"bookshelf/internal/pkg/auth/jwt"
	"bookshelf/internal/pkg/clock"
	"bookshelf/internal/pkg/errs"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	clock  *clock.Manual
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	books := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"B1","volumeInfo":{"title":"Dune","authors":["Frank Herbert"]}}]}`))
	}))
	t.Cleanup(books.Close)

	clk := clock.NewManual(time.Now().UTC())
	tokens := jwt.NewService("router-secret", clk, time.Hour)
	searcher := catalog.NewGoogleBooks(catalog.GoogleBooksOptions{BaseURL: books.URL, Timeout: time.Second})

	svc, err := service.New(user.NewMemoryStore(), searcher, tokens, service.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	deps := &AppDeps{
		Config:        &configs.AppConfig{Environment: configs.EnvDevelopment},
		Service:       svc,
		Authenticator: auth.NewAuthenticator(tokens),
	}
	return &testServer{t: t, router: Router(deps), clock: clk}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (s *testServer) register(username, email, password string) service.AuthResult {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, string(env.Data))

	var res service.AuthResult
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	return res
}

func decodeProfile(t *testing.T, env envelope) user.Profile {
	t.Helper()
	var p user.Profile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	reg := s.register("ada", "a@x.com", "p")
	assert.NotEmpty(t, reg.Token)

	rec, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "p"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login service.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &login))

	rec, env = s.do(http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeProfile(t, env)
	assert.Equal(t, reg.User.ID, me.ID)
	assert.NotContains(t, string(env.Data), "password")
}

func TestRegister_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.register("ada", "a@x.com", "p")

	rec, env := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada", "email": "b@x.com", "password": "p",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errs.ErrConflict, env.Code)
}

func TestRegister_ValidationErrorsListFields(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada", "email": "nope", "password": "p",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.ErrInvalidParams, env.Code)
	assert.Contains(t, string(env.Data), "email")
}

func TestLogin_Failure(t *testing.T) {
	s := newTestServer(t)
	s.register("ada", "a@x.com", "p")

	_, wrong := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "x"})
	_, missing := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "z@x.com", "password": "p"})

	assert.Equal(t, errs.ErrAuthenticationFailed, wrong.Code)
	assert.Equal(t, wrong, missing)
}

func TestMe_WithoutOrWithBadCredential(t *testing.T) {
	s := newTestServer(t)
	reg := s.register("ada", "a@x.com", "p")

	for _, token := range []string{"", "garbage", reg.Token + "x"} {
		rec, env := s.do(http.MethodGet, "/api/users/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, errs.ErrUnauthenticated, env.Code)
	}

	s.clock.Advance(time.Hour)
	rec, _ := s.do(http.MethodGet, "/api/users/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProfile(t *testing.T) {
	s := newTestServer(t)
	reg := s.register("ada", "a@x.com", "p")

	rec, env := s.do(http.MethodGet, "/api/users/ada", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reg.User.ID, decodeProfile(t, env).ID)

	rec, env = s.do(http.MethodGet, "/api/users/"+reg.User.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", decodeProfile(t, env).Username)

	rec, env = s.do(http.MethodGet, "/api/users/grace", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.ErrNotFound, env.Code)
}

func TestSearchBooks(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/api/books/search?q=dune", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"bookId":"B1","title":"Dune","authors":["Frank Herbert"],"description":""}]`, string(env.Data))

	rec, env = s.do(http.MethodGet, "/api/books/search?q=down", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, errs.ErrUpstreamUnavailable, env.Code)

	rec, env = s.do(http.MethodGet, "/api/books/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.ErrInvalidParams, env.Code)
}

func TestSaveAndRemoveBooks(t *testing.T) {
	s := newTestServer(t)
	ada := s.register("ada", "a@x.com", "p")
	grace := s.register("grace", "g@x.com", "q")
	dune := map[string]any{"bookId": "B1", "title": "Dune", "authors": []string{"Frank Herbert"}}

	for i := 0; i < 2; i++ {
		rec, env := s.do(http.MethodPost, "/api/users/me/books", ada.Token, dune)
		require.Equal(t, http.StatusOK, rec.Code, string(env.Data))
		p := decodeProfile(t, env)
		assert.Len(t, p.SavedBooks, 1)
		assert.Equal(t, 1, p.BookCount)
	}

	rec, env := s.do(http.MethodDelete, "/api/users/me/books/B1", grace.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, grace.User.ID, decodeProfile(t, env).ID)

	_, env = s.do(http.MethodGet, "/api/users/me", ada.Token, nil)
	assert.Len(t, decodeProfile(t, env).SavedBooks, 1)

	for i := 0; i < 2; i++ {
		rec, env = s.do(http.MethodDelete, "/api/users/me/books/B1", ada.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeProfile(t, env).SavedBooks)
	}
}

func TestRemoveBook_EscapedIDs(t *testing.T) {
	s := newTestServer(t)
	ada := s.register("ada", "a@x.com", "p")

	for _, tc := range []struct {
		bookID string
		path   string
	}{
		{bookID: "a/b", path: "/api/users/me/books/a%2Fb"},
		{bookID: "50%", path: "/api/users/me/books/50%25"},
		{bookID: "x y", path: "/api/users/me/books/x%20y"},
	} {
		rec, env := s.do(http.MethodPost, "/api/users/me/books", ada.Token, map[string]any{"bookId": tc.bookID})
		require.Equal(t, http.StatusOK, rec.Code, string(env.Data))
		require.Len(t, decodeProfile(t, env).SavedBooks, 1)

		rec, env = s.do(http.MethodDelete, tc.path, ada.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code, string(env.Data))
		assert.Empty(t, decodeProfile(t, env).SavedBooks, "book %q", tc.bookID)
	}
}

func TestSaveAndRemoveBooks_Anonymous(t *testing.T) {
	s := newTestServer(t)
	ada := s.register("ada", "a@x.com", "p")
	_, _ = s.do(http.MethodPost, "/api/users/me/books", ada.Token, map[string]any{"bookId": "B1"})

	rec, env := s.do(http.MethodPost, "/api/users/me/books", "", map[string]any{"bookId": "B2"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errs.ErrUnauthenticated, env.Code)

	rec, _ = s.do(http.MethodDelete, "/api/users/me/books/B1", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, env = s.do(http.MethodGet, "/api/users/me", ada.Token, nil)
	p := decodeProfile(t, env)
	require.Len(t, p.SavedBooks, 1)
	assert.Equal(t, "B1", p.SavedBooks[0].BookID)
}

func TestSaveBook_BadBody(t *testing.T) {
	s := newTestServer(t)
	ada := s.register("ada", "a@x.com", "p")

	rec, env := s.do(http.MethodPost, "/api/users/me/books", ada.Token, map[string]any{"bookId": "B1", "owner": "someone"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.ErrInvalidJSONFormat, env.Code)

	rec, env = s.do(http.MethodPost, "/api/users/me/books", ada.Token, map[string]any{"title": "no id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.ErrInvalidParams, env.Code)
}
