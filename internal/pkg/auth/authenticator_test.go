package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/pkg/auth/jwt"
	"bookshelf/internal/pkg/clock"
)

type panickyVerifier struct{}

func (panickyVerifier) Verify(string) (jwt.Claims, error) {
	panic("boom")
}

type stubVerifier struct {
	claims jwt.Claims
	err    error
	calls  int
}

func (s *stubVerifier) Verify(string) (jwt.Claims, error) {
	s.calls++
	return s.claims, s.err
}

func newJWT(t *testing.T) (*jwt.Service, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	return jwt.NewService("authenticator-secret", clk, time.Hour), clk
}

func TestAuthenticator_Check_Variants(t *testing.T) {
	svc, _ := newJWT(t)
	a := NewAuthenticator(svc)

	token, err := svc.IssueFor("u-1", "ada")
	require.NoError(t, err)

	assert.IsType(t, NoCredential{}, a.Check(NoRequestCredential()))
	assert.IsType(t, NoCredential{}, a.Check(BearerCredential("")))

	inv, ok := a.Check(BearerCredential("garbage")).(Invalid)
	require.True(t, ok)
	assert.ErrorIs(t, inv.Reason, jwt.ErrMalformed)

	valid, ok := a.Check(BearerCredential(token)).(Valid)
	require.True(t, ok)
	assert.Equal(t, "u-1", valid.Claims.Subject)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	svc, clk := newJWT(t)
	a := NewAuthenticator(svc)

	token, err := svc.IssueFor("u-1", "ada")
	require.NoError(t, err)

	id := a.Authenticate(BearerCredential(token))
	assert.True(t, id.IsAuthenticated())
	assert.Equal(t, "u-1", id.Subject())
	assert.Equal(t, "ada", id.Name())

	assert.False(t, a.Authenticate(NoRequestCredential()).IsAuthenticated())
	assert.False(t, a.Authenticate(BearerCredential(token+"x")).IsAuthenticated())

	clk.Advance(time.Hour)
	assert.False(t, a.Authenticate(BearerCredential(token)).IsAuthenticated())
}

func TestAuthenticator_NeverPanics(t *testing.T) {
	a := NewAuthenticator(panickyVerifier{})

	var id Identity
	require.NotPanics(t, func() { id = a.Authenticate(BearerCredential("anything")) })
	assert.False(t, id.IsAuthenticated())

	inv, ok := a.Check(BearerCredential("anything")).(Invalid)
	require.True(t, ok)
	assert.Contains(t, inv.Reason.Error(), "boom")
}

func TestAuthenticator_SkipsVerifierWithoutCredential(t *testing.T) {
	v := &stubVerifier{err: errors.New("unused")}
	a := NewAuthenticator(v)

	a.Authenticate(NoRequestCredential())
	assert.Zero(t, v.calls)
}

func TestCredentialFromHeader(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer   abc.def.ghi  ", "abc.def.ghi", true},
	}
	for _, tc := range cases {
		cred := CredentialFromHeader(tc.header)
		if !tc.ok {
			assert.Nil(t, cred.Raw, "header %q", tc.header)
			continue
		}
		require.NotNil(t, cred.Raw, "header %q", tc.header)
		assert.Equal(t, tc.want, *cred.Raw)
	}
}

func TestIdentityMiddleware(t *testing.T) {
	svc, _ := newJWT(t)
	token, err := svc.IssueFor("u-7", "grace")
	require.NoError(t, err)

	var seen Identity
	h := IdentityMiddleware(NewAuthenticator(svc))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	for header, wantSubject := range map[string]string{
		"":                      "",
		"Bearer " + token:       "u-7",
		"Bearer " + token + "Z": "",
		"Token " + token:        "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code, "header %q", header)
		assert.Equal(t, wantSubject, seen.Subject(), "header %q", header)
	}
}

func TestFromContext_DefaultsToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id := FromContext(req.Context())
	assert.False(t, id.IsAuthenticated())
	assert.Equal(t, "anonymous", id.String())
}
