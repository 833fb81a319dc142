package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bookshelf/internal/app/book"
	"bookshelf/internal/app/user"
)

var _ user.Store = (*UserStore)(nil)

const (
	userColumns = `SELECT id, username, email, password_hash FROM users`

	selectUserByID       = userColumns + ` WHERE id = $1`
	selectUserByUsername = userColumns + ` WHERE username = $1`
	selectUserByEmail    = userColumns + ` WHERE lower(email) = lower($1)`

	selectSavedBooks = `SELECT book_id, title, authors, description, image, link
		FROM saved_books WHERE user_id = $1 ORDER BY position`

	insertUser = `INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, $4)`

	// The EXISTS guard keeps the foreign key from turning a missing user into a
	// constraint error; ON CONFLICT makes a repeated save a no-op.
	insertSavedBook = `INSERT INTO saved_books (user_id, book_id, title, authors, description, image, link)
		SELECT $1::uuid, $2::text, $3::text, $4::jsonb, $5::text, $6::text, $7::text
		WHERE EXISTS (SELECT 1 FROM users WHERE id = $1::uuid)
		ON CONFLICT (user_id, book_id) DO NOTHING`

	deleteSavedBook = `DELETE FROM saved_books WHERE user_id = $1 AND book_id = $2`
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserStore implements user.Store on PostgreSQL. Each saved-book mutation is
// one conditional statement; the follow-up read runs in the same transaction
// so the returned user reflects exactly that statement.
type UserStore struct {
	db *sql.DB
}

// NewUserStore returns a store over db.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return s.load(ctx, s.db, selectUserByID, id)
}

func (s *UserStore) FindUserByUsername(ctx context.Context, username string) (user.User, error) {
	return s.load(ctx, s.db, selectUserByUsername, username)
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.load(ctx, s.db, selectUserByEmail, email)
}

func (s *UserStore) CreateUser(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	id := uuid.NewString()

	if _, err := s.db.ExecContext(ctx, insertUser, id, username, email, passwordHash); err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, fmt.Errorf("%w: %s", user.ErrDuplicate, username)
		}
		return user.User{}, fmt.Errorf("db error: insert user: %w", err)
	}

	return user.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		SavedBooks:   []book.Book{},
	}, nil
}

func (s *UserStore) AddSavedBook(ctx context.Context, userID string, b book.Book) (user.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return user.User{}, user.ErrNotFound
	}

	authors, err := json.Marshal(b.Normalize().Authors)
	if err != nil {
		return user.User{}, fmt.Errorf("encode authors: %w", err)
	}

	return s.mutate(ctx, userID, insertSavedBook,
		userID, b.BookID, b.Title, string(authors), b.Description, b.Image, b.Link)
}

func (s *UserStore) RemoveSavedBook(ctx context.Context, userID, bookID string) (user.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return s.mutate(ctx, userID, deleteSavedBook, userID, bookID)
}

// mutate runs stmt and reads the user back inside one transaction.
func (s *UserStore) mutate(ctx context.Context, userID, stmt string, args ...any) (user.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return user.User{}, fmt.Errorf("db error: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return user.User{}, fmt.Errorf("db error: saved books: %w", err)
	}

	u, err := s.load(ctx, tx, selectUserByID, userID)
	if err != nil {
		return user.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return user.User{}, fmt.Errorf("db error: commit: %w", err)
	}
	return u, nil
}

func (s *UserStore) load(ctx context.Context, q queryer, query string, arg string) (user.User, error) {
	var u user.User
	err := q.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("db error: select user: %w", err)
	}

	books, err := s.savedBooks(ctx, q, u.ID)
	if err != nil {
		return user.User{}, err
	}
	u.SavedBooks = books
	return u, nil
}

func (s *UserStore) savedBooks(ctx context.Context, q queryer, userID string) ([]book.Book, error) {
	rows, err := q.QueryContext(ctx, selectSavedBooks, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: select saved books: %w", err)
	}
	defer rows.Close()

	books := []book.Book{}
	for rows.Next() {
		var (
			b       book.Book
			authors []byte
		)
		if err := rows.Scan(&b.BookID, &b.Title, &authors, &b.Description, &b.Image, &b.Link); err != nil {
			return nil, fmt.Errorf("db error: scan saved book: %w", err)
		}
		if len(authors) > 0 {
			if err := json.Unmarshal(authors, &b.Authors); err != nil {
				return nil, fmt.Errorf("decode authors of %q: %w", b.BookID, err)
			}
		}
		books = append(books, b.Normalize())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: iterate saved books: %w", err)
	}
	return books, nil
}
