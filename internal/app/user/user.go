/*
Package user holds the account record, the storage contract the core needs,
and the Saved-Book Set Manager built on top of it.
*/
package user

import "bookshelf/internal/app/book"

// User is the persisted account. PasswordHash is a bcrypt hash and is never
// serialized to clients.
type User struct {
	ID           string      `json:"id" bson:"_id"`
	Username     string      `json:"username" bson:"username"`
	Email        string      `json:"email" bson:"email"`
	PasswordHash string      `json:"-" bson:"password"`
	SavedBooks   []book.Book `json:"savedBooks" bson:"savedBooks"`
}

// Profile is the public view of a User.
type Profile struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	BookCount  int         `json:"bookCount"`
	SavedBooks []book.Book `json:"savedBooks"`
}

// Profile strips the password hash and copies the saved collection.
func (u User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		BookCount:  len(u.SavedBooks),
		SavedBooks: book.Clone(u.SavedBooks),
	}
}

// HasBook reports whether bookID is in the saved collection.
func (u User) HasBook(bookID string) bool {
	return book.IndexOf(u.SavedBooks, bookID) >= 0
}

// clone deep-copies u so stores never hand out shared slices.
func (u User) clone() User {
	u.SavedBooks = book.Clone(u.SavedBooks)
	return u
}
