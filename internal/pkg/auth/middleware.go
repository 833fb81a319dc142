package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// CredentialFromHeader parses an Authorization header value. Anything other
// than "Bearer <token>" counts as no credential.
func CredentialFromHeader(header string) RequestCredential {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return NoRequestCredential()
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return NoRequestCredential()
	}
	return BearerCredential(token)
}

// IdentityMiddleware authenticates every request exactly once and stores the
// resulting Identity in the request context. It never rejects a request;
// handlers decide whether anonymity is acceptable.
func IdentityMiddleware(a *Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := a.Authenticate(CredentialFromHeader(r.Header.Get("Authorization")))

			ctx := WithIdentity(r.Context(), id)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("identity", id.String())
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
