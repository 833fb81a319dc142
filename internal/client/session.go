package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/app/book"
	"bookshelf/internal/app/user"
	"bookshelf/internal/pkg/clock"
	"bookshelf/internal/pkg/errs"
)

// ErrNotLoggedIn is returned by owner-only calls made without a credential.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is one user's client state: the credential and the cached current
// user. The snapshot only changes after the server confirms a call.
type Session struct {
	api    *API
	tokens TokenStore
	clock  clock.Clock

	mu       sync.Mutex
	token    string
	snapshot *Snapshot
}

// NewSession restores any stored credential from tokens.
func NewSession(api *API, tokens TokenStore) (*Session, error) {
	token, err := tokens.Load()
	if err != nil {
		return nil, err
	}
	return &Session{api: api, tokens: tokens, clock: clock.Real{}, token: token}, nil
}

// LoggedIn reports whether an unexpired credential is held. An expired one
// is discarded without asking the server.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveTokenLocked() != ""
}

// liveTokenLocked returns the held credential, dropping it first when its
// expiry has passed on the local clock.
func (s *Session) liveTokenLocked() string {
	if s.token != "" && tokenExpired(s.token, s.clock.Now()) {
		s.token = ""
		s.snapshot = nil
		_ = s.tokens.Clear()
	}
	return s.token
}

// tokenExpired reads exp without checking the signature; only the server can
// do that. A token whose claims cannot be read is left to the server to reject.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// Snapshot returns a copy of the cached current user, or nil.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil
	}
	cp := *s.snapshot
	cp.Profile.SavedBooks = book.Clone(s.snapshot.Profile.SavedBooks)
	return &cp
}

// Invalidate marks the snapshot stale so the next Me refetches.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		s.snapshot.Stale = true
	}
}

func (s *Session) Register(ctx context.Context, username, email, password string) (user.Profile, error) {
	res, err := s.api.Register(ctx, username, email, password)
	if err != nil {
		return user.Profile{}, err
	}
	return res.User, s.begin(res)
}

func (s *Session) Login(ctx context.Context, email, password string) (user.Profile, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return user.Profile{}, err
	}
	return res.User, s.begin(res)
}

func (s *Session) begin(res AuthResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = res.Token
	s.snapshot = &Snapshot{Profile: res.User}
	if err := s.tokens.Save(res.Token); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Logout discards the credential and the snapshot.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.snapshot = nil
	return s.tokens.Clear()
}

// Me returns the cached current user, fetching it when absent or stale. A
// rejected credential ends the session.
func (s *Session) Me(ctx context.Context) (user.Profile, error) {
	s.mu.Lock()
	token := s.liveTokenLocked()
	snap := s.snapshot
	s.mu.Unlock()

	if token == "" {
		return user.Profile{}, ErrNotLoggedIn
	}
	if snap != nil && !snap.Stale {
		return s.Snapshot().Profile, nil
	}

	p, err := s.api.Me(ctx, token)
	if err != nil {
		if HasCode(err, errs.ErrUnauthenticated) {
			_ = s.Logout()
		}
		return user.Profile{}, err
	}

	s.mu.Lock()
	s.snapshot = &Snapshot{Profile: p}
	s.mu.Unlock()
	return p, nil
}

// SaveBook saves b on the server, then patches the snapshot with the entry
// the server confirmed.
func (s *Session) SaveBook(ctx context.Context, b book.Book) (user.Profile, error) {
	token, err := s.requireToken()
	if err != nil {
		return user.Profile{}, err
	}

	p, err := s.api.SaveBook(ctx, token, b)
	if err != nil {
		return user.Profile{}, s.mutationFailed(err)
	}

	id := strings.TrimSpace(b.BookID)
	if i := book.IndexOf(p.SavedBooks, id); i >= 0 {
		s.apply(Saved(p.SavedBooks[i]), p)
	} else {
		s.Invalidate()
	}
	return p, nil
}

// RemoveBook removes bookID on the server, then patches the snapshot.
func (s *Session) RemoveBook(ctx context.Context, bookID string) (user.Profile, error) {
	token, err := s.requireToken()
	if err != nil {
		return user.Profile{}, err
	}

	p, err := s.api.RemoveBook(ctx, token, bookID)
	if err != nil {
		return user.Profile{}, s.mutationFailed(err)
	}

	id := strings.TrimSpace(bookID)
	if book.IndexOf(p.SavedBooks, id) < 0 {
		s.apply(Removed(id), p)
	} else {
		s.Invalidate()
	}
	return p, nil
}

func (s *Session) requireToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.liveTokenLocked()
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// apply patches the snapshot with m. If the result disagrees with the
// collection the server returned, the snapshot is marked stale instead.
func (s *Session) apply(m Mutation, confirmed user.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, refetch := Reconcile(s.snapshot, m)
	if refetch || !sameBooks(next.Profile.SavedBooks, confirmed.SavedBooks) {
		if s.snapshot != nil {
			s.snapshot.Stale = true
		}
		return
	}
	s.snapshot = next
}

func sameBooks(a, b []book.Book) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].BookID != b[i].BookID {
			return false
		}
	}
	return true
}

// mutationFailed leaves the snapshot unknown after an unconfirmed mutation.
func (s *Session) mutationFailed(err error) error {
	if HasCode(err, errs.ErrUnauthenticated) {
		_ = s.Logout()
		return err
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		s.Invalidate()
	}
	return err
}
