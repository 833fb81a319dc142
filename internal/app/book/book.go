// Package book defines the normalized book record shared by the catalog and
// users' saved collections.
package book

// Book is a catalog entry. BookID is the catalog's identifier and the
// uniqueness key inside a user's saved collection.
type Book struct {
	BookID      string   `json:"bookId" bson:"bookId" validate:"required,max=128"`
	Title       string   `json:"title" bson:"title" validate:"max=1024"`
	Authors     []string `json:"authors" bson:"authors" validate:"max=64,dive,max=256"`
	Description string   `json:"description" bson:"description"`
	Image       string   `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,url"`
	Link        string   `json:"link,omitempty" bson:"link,omitempty" validate:"omitempty,url"`
}

// Normalize returns a copy with a non-nil Authors slice, so every Book
// serializes authors as a list.
func (b Book) Normalize() Book {
	b.Authors = append(make([]string, 0, len(b.Authors)), b.Authors...)
	return b
}

// IndexOf returns the position of bookID in books, or -1.
func IndexOf(books []Book, bookID string) int {
	for i := range books {
		if books[i].BookID == bookID {
			return i
		}
	}
	return -1
}

// Without returns a new slice holding books minus any entry with bookID.
func Without(books []Book, bookID string) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if b.BookID != bookID {
			out = append(out, b)
		}
	}
	return out
}

// Clone deep-copies books.
func Clone(books []Book) []Book {
	if books == nil {
		return []Book{}
	}
	out := make([]Book, len(books))
	for i, b := range books {
		out[i] = b.Normalize()
	}
	return out
}
