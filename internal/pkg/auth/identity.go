/*
Package auth turns an inbound credential into the per-request Identity that
every operation receives.

The Authenticator never fails: a missing, malformed, forged or expired
credential yields the anonymous Identity, which only forecloses operations
that require a signed-in user.
*/
package auth

import "context"

// Identity is either anonymous (the zero value) or an authenticated subject.
// It is immutable once built.
type Identity struct {
	subject string
	name    string
}

// Anonymous returns the identity of a caller without a valid credential.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a verified subject.
func Authenticated(subject, name string) Identity {
	return Identity{subject: subject, name: name}
}

// IsAuthenticated reports whether the caller presented a valid credential.
func (i Identity) IsAuthenticated() bool {
	return i.subject != ""
}

// Subject returns the user identifier, or "" when anonymous.
func (i Identity) Subject() string {
	return i.subject
}

// Name returns the display name embedded in the credential.
func (i Identity) Name() string {
	return i.name
}

// String is used by log fields.
func (i Identity) String() string {
	if !i.IsAuthenticated() {
		return "anonymous"
	}
	return i.subject
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the Identity stored by the middleware, or Anonymous.
func FromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok {
		return Anonymous()
	}
	return id
}
