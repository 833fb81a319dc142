// Package catalog looks up books in an external provider and normalizes the
// results into book.Book records.
package catalog

import (
	"context"
	"errors"

	"bookshelf/internal/app/book"
)

var (
	// ErrEmptyQuery is returned for a blank search.
	ErrEmptyQuery = errors.New("catalog: empty query")

	// ErrUnavailable wraps every provider failure: transport errors, non-2xx
	// answers, undecodable bodies, timeouts and an open circuit.
	ErrUnavailable = errors.New("catalog: provider unavailable")
)

// Searcher is the catalog collaborator used by the operation layer.
type Searcher interface {
	Search(ctx context.Context, query string) ([]book.Book, error)
}
