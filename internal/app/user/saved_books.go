package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookshelf/internal/app/book"
	"bookshelf/internal/pkg/logx"
)

// ErrEmptyBookID is returned when a mutation names no catalog id.
var ErrEmptyBookID = errors.New("book id is required")

// SavedBooks enforces set semantics on a user's saved collection: a catalog
// id appears at most once, adding a present id and removing an absent one are
// no-ops. Atomicity is delegated to the Store; SavedBooks holds no locks.
type SavedBooks struct {
	store Store
}

// NewSavedBooks returns a manager over store.
func NewSavedBooks(store Store) *SavedBooks {
	return &SavedBooks{store: store}
}

// Add saves b for userID and returns the resulting user.
func (m *SavedBooks) Add(ctx context.Context, userID string, b book.Book) (User, error) {
	b.BookID = strings.TrimSpace(b.BookID)
	if b.BookID == "" {
		return User{}, ErrEmptyBookID
	}

	u, err := m.store.AddSavedBook(ctx, userID, b.Normalize())
	if err != nil {
		return User{}, fmt.Errorf("add saved book %q: %w", b.BookID, err)
	}

	logx.Ctx(ctx).Debug().
		Str("user_id", userID).
		Str("book_id", b.BookID).
		Int("book_count", len(u.SavedBooks)).
		Msg("saved book")
	return u, nil
}

// Remove deletes bookID from userID's collection and returns the resulting user.
func (m *SavedBooks) Remove(ctx context.Context, userID, bookID string) (User, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return User{}, ErrEmptyBookID
	}

	u, err := m.store.RemoveSavedBook(ctx, userID, bookID)
	if err != nil {
		return User{}, fmt.Errorf("remove saved book %q: %w", bookID, err)
	}

	logx.Ctx(ctx).Debug().
		Str("user_id", userID).
		Str("book_id", bookID).
		Int("book_count", len(u.SavedBooks)).
		Msg("removed saved book")
	return u, nil
}
