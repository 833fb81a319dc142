package user

import (
	"context"
	"errors"

	"bookshelf/internal/app/book"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicate is returned by CreateUser when the email or username is taken.
	ErrDuplicate = errors.New("user already exists")
)

// Store is the persistence collaborator. AddSavedBook and RemoveSavedBook must
// each be a single atomic conditional update: concurrent calls for one user
// end in a state equal to some serial order, and a bookId is never stored twice.
type Store interface {
	FindUserByID(ctx context.Context, id string) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)

	// CreateUser inserts a new account and returns it with its generated ID.
	CreateUser(ctx context.Context, username, email, passwordHash string) (User, error)

	// AddSavedBook appends b unless an entry with the same BookID exists, and
	// returns the resulting user.
	AddSavedBook(ctx context.Context, userID string, b book.Book) (User, error)

	// RemoveSavedBook deletes the entry with bookID if present, and returns
	// the resulting user.
	RemoveSavedBook(ctx context.Context, userID, bookID string) (User, error)
}
