/*
Package jwt issues and verifies bookshelf bearer credentials.

A credential is an HS256-signed JWT whose claims are the identity itself; the
server keeps no credential state. Verification always recomputes the signature
before looking at expiry, and reads time only from the injected clock.
*/
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/pkg/clock"
)

const (
	// DefaultTTL is how long a credential issued at register or login stays valid.
	DefaultTTL = 2 * time.Hour

	// TokenIssuer identifies credentials minted by this service.
	TokenIssuer = "bookshelf"
)

var (
	// ErrInvalidClaims is returned by Issue for an empty subject or a non-positive lifetime.
	ErrInvalidClaims = errors.New("invalid credential claims")

	// ErrMalformed means the token could not be decoded or is not one of ours.
	ErrMalformed = errors.New("malformed credential")

	// ErrExpired means the token is correctly signed but its expiry is at or before now.
	ErrExpired = errors.New("credential expired")

	// ErrSignatureMismatch means the recomputed signature does not match.
	ErrSignatureMismatch = errors.New("credential signature mismatch")
)

// Service signs and verifies credentials with a shared secret. It is safe for
// concurrent use; the secret is never mutated after construction.
type Service struct {
	secret []byte
	clock  clock.Clock
	ttl    time.Duration
	parser *jwt.Parser
}

// NewService returns a Service using secret, clk as the only time source and
// ttl as the lifetime used by IssueFor. A zero ttl selects DefaultTTL.
func NewService(secret string, clk clock.Clock, ttl time.Duration) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Service{
		secret: []byte(secret),
		clock:  clk,
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(TokenIssuer),
			jwt.WithTimeFunc(clk.Now),
			jwt.WithStrictDecoding(),
		),
	}
}

// Issue signs c. The subject must be non-empty and the expiry strictly after
// the issue time at the one-second precision the token encodes.
func (s *Service) Issue(c Claims) (string, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidClaims)
	}

	iat := c.IssuedAt.Truncate(jwt.TimePrecision)
	exp := c.ExpiresAt.Truncate(jwt.TimePrecision)
	if !exp.After(iat) {
		return "", fmt.Errorf("%w: expiry %s is not after issue time %s", ErrInvalidClaims, exp, iat)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c.toPayload(TokenIssuer))
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}

	return signed, nil
}

// IssueFor issues a credential for subject valid from now for the configured TTL.
func (s *Service) IssueFor(subject, name string) (string, error) {
	now := s.clock.Now()
	return s.Issue(Claims{
		Subject:   subject,
		Name:      name,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	})
}

// Verify checks token and returns its claims. On failure the error is exactly
// one of ErrMalformed, ErrExpired or ErrSignatureMismatch (wrapping the cause).
func (s *Service) Verify(token string) (Claims, error) {
	p := &payload{}
	_, err := s.parser.ParseWithClaims(token, p, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && s.badSignatureSegment(token) {
			return Claims{}, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
		}
		return Claims{}, classify(err)
	}

	c := p.claims()
	if c.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return c, nil
}

// badSignatureSegment reports whether token has a well-formed header and
// claims but a signature segment that is not strict base64url. Such a token
// was altered after signing.
func (s *Service) badSignatureSegment(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	if _, _, err := s.parser.ParseUnverified(token, &payload{}); err != nil {
		return false
	}
	_, err := s.parser.DecodeSegment(parts[2])
	return err != nil
}

// classify maps library errors onto the three verification failures. The
// library checks the signature before claims, so an expiry error implies the
// signature was valid.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
