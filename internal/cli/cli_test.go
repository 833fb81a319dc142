package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/app/catalog"
	"bookshelf/internal/app/service"
	"bookshelf/internal/app/user"
	"bookshelf/internal/configs"
	"bookshelf/internal/handler"
	"bookshelf/internal/pkg/auth"
	"bookshelf/internal/pkg/auth/jwt"
	"bookshelf/internal/pkg/clock"
)

func startServer(t *testing.T) string {
	t.Helper()

	books := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"B1","volumeInfo":{"title":"Dune","authors":["Frank Herbert"]}}]}`))
	}))
	t.Cleanup(books.Close)

	tokens := jwt.NewService("cli-secret", clock.Real{}, time.Hour)
	svc, err := service.New(user.NewMemoryStore(),
		catalog.NewGoogleBooks(catalog.GoogleBooksOptions{BaseURL: books.URL}),
		tokens, service.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	srv := httptest.NewServer(handler.Router(&handler.AppDeps{
		Config:        &configs.AppConfig{Environment: configs.EnvDevelopment},
		Service:       svc,
		Authenticator: auth.NewAuthenticator(tokens),
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

type runner struct {
	t         *testing.T
	server    string
	tokenFile string
}

func (r runner) run(args ...string) (string, error) {
	r.t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", r.server, "--token-file", r.tokenFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func newRunner(t *testing.T) runner {
	return runner{t: t, server: startServer(t), tokenFile: filepath.Join(t.TempDir(), "session.json")}
}

func TestCLI_Flow(t *testing.T) {
	r := newRunner(t)

	out, err := r.run("register", "-u", "ada", "-e", "a@x.com", "-p", "p")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered and signed in as ada")

	out, err = r.run("search", "dune")
	require.NoError(t, err)
	assert.Contains(t, out, "B1")
	assert.Contains(t, out, "Frank Herbert")

	out, err = r.run("save", "B1", "--title", "Dune", "--author", "Frank Herbert")
	require.NoError(t, err)
	assert.Contains(t, out, "You have 1 saved books")

	out, err = r.run("save", "B1", "--title", "Dune")
	require.NoError(t, err)
	assert.Contains(t, out, "You have 1 saved books")

	out, err = r.run("me")
	require.NoError(t, err)
	var me user.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &me))
	assert.Equal(t, "ada", me.Username)
	require.Len(t, me.SavedBooks, 1)
	assert.Equal(t, []string{"Frank Herbert"}, me.SavedBooks[0].Authors)

	out, err = r.run("rm", "B1")
	require.NoError(t, err)
	assert.Contains(t, out, "You have 0 saved books")

	out, err = r.run("profile", "ada")
	require.NoError(t, err)
	assert.Contains(t, out, `"bookCount": 0`)

	_, err = r.run("logout")
	require.NoError(t, err)

	_, err = r.run("me")
	assert.Error(t, err)

	out, err = r.run("login", "-e", "a@x.com", "-p", "p")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as ada")
}

func TestCLI_Errors(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("save", "B1")
	assert.Error(t, err)

	_, err = r.run("login", "-e", "nobody@x.com", "-p", "p")
	assert.ErrorContains(t, err, "Incorrect email or password")

	_, err = r.run("register", "-u", "ada")
	assert.Error(t, err)
}
