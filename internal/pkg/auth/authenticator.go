package auth

import (
	"fmt"

	"bookshelf/internal/pkg/auth/jwt"
	"bookshelf/internal/pkg/logx"
)

// RequestCredential is everything the Authenticator needs from a request:
// the raw bearer credential, if one was sent.
type RequestCredential struct {
	Raw *string
}

// NoRequestCredential is a request without a credential.
func NoRequestCredential() RequestCredential {
	return RequestCredential{}
}

// BearerCredential wraps a raw token string.
func BearerCredential(token string) RequestCredential {
	return RequestCredential{Raw: &token}
}

// Verifier checks a raw credential. *jwt.Service satisfies it.
type Verifier interface {
	Verify(token string) (jwt.Claims, error)
}

// Verification is the outcome of checking a RequestCredential. It is one of
// NoCredential, Invalid or Valid.
type Verification interface {
	verification()
}

// NoCredential means the request carried no credential.
type NoCredential struct{}

// Invalid means a credential was present but failed verification.
type Invalid struct {
	Reason error
}

// Valid means the credential verified and carries Claims.
type Valid struct {
	Claims jwt.Claims
}

func (NoCredential) verification() {}
func (Invalid) verification()      {}
func (Valid) verification()        {}

// Authenticator resolves request credentials to identities.
type Authenticator struct {
	verifier Verifier
}

// NewAuthenticator returns an Authenticator backed by v.
func NewAuthenticator(v Verifier) *Authenticator {
	return &Authenticator{verifier: v}
}

// Check verifies cred without deciding the identity. A panic inside the
// verifier is reported as Invalid.
func (a *Authenticator) Check(cred RequestCredential) (result Verification) {
	if cred.Raw == nil || *cred.Raw == "" {
		return NoCredential{}
	}

	defer func() {
		if r := recover(); r != nil {
			result = Invalid{Reason: fmt.Errorf("credential verifier panicked: %v", r)}
		}
	}()

	claims, err := a.verifier.Verify(*cred.Raw)
	if err != nil {
		return Invalid{Reason: err}
	}
	return Valid{Claims: claims}
}

// Authenticate maps cred to an Identity. It never returns an error.
func (a *Authenticator) Authenticate(cred RequestCredential) Identity {
	switch v := a.Check(cred).(type) {
	case NoCredential:
		return Anonymous()
	case Invalid:
		logx.Warn("invalid credential presented, treating caller as anonymous", "reason", v.Reason.Error())
		return Anonymous()
	case Valid:
		return Authenticated(v.Claims.Subject, v.Claims.Name)
	default:
		return Anonymous()
	}
}
