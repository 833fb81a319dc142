package client

import (
	"bookshelf/internal/app/book"
	"bookshelf/internal/app/user"
)

// Snapshot is the locally cached current user. Stale marks a snapshot that
// must be refetched before it is trusted.
type Snapshot struct {
	Profile user.Profile
	Stale   bool
}

// MutationKind names a confirmed change to the saved collection.
type MutationKind int

const (
	BookSaved MutationKind = iota + 1
	BookRemoved
)

// Mutation is a server-confirmed save or remove.
type Mutation struct {
	Kind MutationKind
	// Book is the saved book for BookSaved.
	Book book.Book
	// BookID is the removed catalog id for BookRemoved.
	BookID string
}

// Saved returns the mutation for a confirmed save of b.
func Saved(b book.Book) Mutation {
	return Mutation{Kind: BookSaved, Book: b}
}

// Removed returns the mutation for a confirmed removal of bookID.
func Removed(bookID string) Mutation {
	return Mutation{Kind: BookRemoved, BookID: bookID}
}

// Reconcile applies a confirmed mutation to old and returns the new snapshot.
// It never modifies old. When old is absent or stale, or the mutation is not
// understood, it returns nil and refetch=true instead of guessing.
func Reconcile(old *Snapshot, m Mutation) (next *Snapshot, refetch bool) {
	if old == nil || old.Stale {
		return nil, true
	}

	p := old.Profile
	p.SavedBooks = book.Clone(old.Profile.SavedBooks)

	switch m.Kind {
	case BookSaved:
		if m.Book.BookID == "" {
			return nil, true
		}
		if book.IndexOf(p.SavedBooks, m.Book.BookID) < 0 {
			p.SavedBooks = append(p.SavedBooks, m.Book.Normalize())
		}
	case BookRemoved:
		p.SavedBooks = book.Without(p.SavedBooks, m.BookID)
	default:
		return nil, true
	}

	p.BookCount = len(p.SavedBooks)
	return &Snapshot{Profile: p}, false
}
