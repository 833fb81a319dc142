/*
Package service is the operation layer of bookshelf. Each exported method is
one named operation; the ones that act on a saved collection take the caller's
auth.Identity and always operate on the identity's own account.
*/
package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/app/book"
	"bookshelf/internal/app/catalog"
	"bookshelf/internal/app/user"
	"bookshelf/internal/pkg/auth"
	"bookshelf/internal/pkg/errs"
	"bookshelf/internal/pkg/logx"
	"bookshelf/internal/pkg/validx"
)

// TokenIssuer mints a bearer credential for an account.
type TokenIssuer interface {
	IssueFor(subject, name string) (string, error)
}

// Options tunes a Service. Zero values take defaults.
type Options struct {
	// BcryptCost is the bcrypt work factor for new password hashes.
	BcryptCost int
}

// Service implements the seven bookshelf operations.
type Service struct {
	store   user.Store
	books   *user.SavedBooks
	catalog catalog.Searcher
	tokens  TokenIssuer
	cost    int

	// dummyHash is compared against when a login names no account, so both
	// failure paths pay for one bcrypt comparison.
	dummyHash []byte
}

// New wires a Service.
func New(store user.Store, searcher catalog.Searcher, tokens TokenIssuer, opts Options) (*Service, error) {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("service: bcrypt cost out of range")
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("bookshelf-login-placeholder"), cost)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:     store,
		books:     user.NewSavedBooks(store),
		catalog:   searcher,
		tokens:    tokens,
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  user.Profile `json:"user"`
}

// RegisterInput is the register operation input.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginInput is the login operation input.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and returns it with a fresh credential.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validx.Struct(in); err != nil {
		return AuthResult{}, errs.Wrap(errs.ErrInvalidParams, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return AuthResult{}, errs.Wrap(errs.ErrInvalidParams, err)
		}
		return AuthResult{}, errs.Wrap(errs.ErrUnknown, err)
	}

	u, err := s.store.CreateUser(ctx, in.Username, in.Email, string(hash))
	if err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			logx.Ctx(ctx).Warn().Str("username", in.Username).Msg("registration conflict")
			return AuthResult{}, errs.Wrap(errs.ErrConflict, err)
		}
		logx.Ctx(ctx).Error().Err(err).Msg("register: failed to create user")
		return AuthResult{}, errs.Wrap(errs.ErrUnknown, err)
	}

	logx.Ctx(ctx).Info().Str("user_id", u.ID).Msg("user registered")
	return s.authResult(ctx, u)
}

// Login checks an email and password pair. Every failure is the same
// AuthenticationFailed error.
func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	if err := validx.Struct(in); err != nil {
		return AuthResult{}, errs.NewError(errs.ErrAuthenticationFailed)
	}

	u, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			logx.Ctx(ctx).Error().Err(err).Msg("login: user lookup failed")
			return AuthResult{}, errs.Wrap(errs.ErrUnknown, err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		logx.Ctx(ctx).Warn().Msg("login: no such account")
		return AuthResult{}, errs.NewError(errs.ErrAuthenticationFailed)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		logx.Ctx(ctx).Warn().Str("user_id", u.ID).Msg("login: password mismatch")
		return AuthResult{}, errs.NewError(errs.ErrAuthenticationFailed)
	}

	return s.authResult(ctx, u)
}

func (s *Service) authResult(ctx context.Context, u user.User) (AuthResult, error) {
	token, err := s.tokens.IssueFor(u.ID, u.Username)
	if err != nil {
		logx.Ctx(ctx).Error().Err(err).Str("user_id", u.ID).Msg("failed to issue credential")
		return AuthResult{}, errs.Wrap(errs.ErrUnknown, err)
	}
	return AuthResult{Token: token, User: u.Profile()}, nil
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, id auth.Identity) (user.Profile, error) {
	if !id.IsAuthenticated() {
		return user.Profile{}, errs.NewError(errs.ErrUnauthenticated)
	}

	u, err := s.store.FindUserByID(ctx, id.Subject())
	if err != nil {
		return user.Profile{}, s.ownerError(ctx, id, err)
	}
	return u.Profile(), nil
}

// Profile looks up any account by id, then by username.
func (s *Service) Profile(ctx context.Context, idOrUsername string) (user.Profile, error) {
	key := strings.TrimSpace(idOrUsername)
	if key == "" {
		return user.Profile{}, errs.NewError(errs.ErrNotFound)
	}

	u, err := s.store.FindUserByID(ctx, key)
	if errors.Is(err, user.ErrNotFound) {
		u, err = s.store.FindUserByUsername(ctx, key)
	}
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Profile{}, errs.Wrap(errs.ErrNotFound, err)
		}
		logx.Ctx(ctx).Error().Err(err).Str("key", key).Msg("profile lookup failed")
		return user.Profile{}, errs.Wrap(errs.ErrUnknown, err)
	}
	return u.Profile(), nil
}

// SearchCatalog queries the external catalog.
func (s *Service) SearchCatalog(ctx context.Context, query string) ([]book.Book, error) {
	books, err := s.catalog.Search(ctx, query)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyQuery) {
			return nil, errs.Wrap(errs.ErrInvalidParams, err)
		}
		return nil, errs.Wrap(errs.ErrUpstreamUnavailable, err)
	}
	if books == nil {
		books = []book.Book{}
	}
	return books, nil
}

// SaveBook adds b to the caller's collection.
func (s *Service) SaveBook(ctx context.Context, id auth.Identity, b book.Book) (user.Profile, error) {
	if !id.IsAuthenticated() {
		return user.Profile{}, errs.NewError(errs.ErrUnauthenticated)
	}

	b.BookID = strings.TrimSpace(b.BookID)
	if err := validx.Struct(b); err != nil {
		return user.Profile{}, errs.Wrap(errs.ErrInvalidParams, err)
	}

	u, err := s.books.Add(ctx, id.Subject(), b)
	if err != nil {
		return user.Profile{}, s.ownerError(ctx, id, err)
	}
	return u.Profile(), nil
}

// RemoveBook deletes bookID from the caller's collection.
func (s *Service) RemoveBook(ctx context.Context, id auth.Identity, bookID string) (user.Profile, error) {
	if !id.IsAuthenticated() {
		return user.Profile{}, errs.NewError(errs.ErrUnauthenticated)
	}

	u, err := s.books.Remove(ctx, id.Subject(), bookID)
	if err != nil {
		return user.Profile{}, s.ownerError(ctx, id, err)
	}
	return u.Profile(), nil
}

// ownerError maps a storage failure on the caller's own account. A subject
// with no account means the credential outlived it.
func (s *Service) ownerError(ctx context.Context, id auth.Identity, err error) error {
	switch {
	case errors.Is(err, user.ErrEmptyBookID):
		return errs.Wrap(errs.ErrInvalidParams, err)
	case errors.Is(err, user.ErrNotFound):
		logx.Ctx(ctx).Warn().Str("subject", id.Subject()).Msg("credential subject has no account")
		return errs.Wrap(errs.ErrUnauthenticated, err)
	default:
		logx.Ctx(ctx).Error().Err(err).Str("subject", id.Subject()).Msg("saved books storage failure")
		return errs.Wrap(errs.ErrUnknown, err)
	}
}
