package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity carried inside a bookshelf credential.
type Claims struct {
	// Subject is the user identifier the credential was issued to.
	Subject string

	// Name is the display name (the username at issue time).
	Name string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

// payload is the wire form of Claims: registered JWT claims plus the display name.
type payload struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

func (c Claims) toPayload(issuer string) payload {
	return payload{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
		Name: c.Name,
	}
}

func (p payload) claims() Claims {
	c := Claims{Subject: p.Subject, Name: p.Name}
	if p.IssuedAt != nil {
		c.IssuedAt = p.IssuedAt.Time
	}
	if p.ExpiresAt != nil {
		c.ExpiresAt = p.ExpiresAt.Time
	}
	return c
}
