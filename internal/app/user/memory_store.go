package user

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bookshelf/internal/app/book"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used in development and tests. Each
// method runs in one critical section, which is this backend's atomic update.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (s *MemoryStore) FindUserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u.clone(), nil
}

func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (User, error) {
	return s.findBy(func(u User) bool { return u.Username == username })
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (User, error) {
	return s.findBy(func(u User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *MemoryStore) findBy(match func(User) bool) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return u.clone(), nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) CreateUser(_ context.Context, username, email, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return User{}, fmt.Errorf("%w: %s", ErrDuplicate, username)
		}
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		SavedBooks:   []book.Book{},
	}
	s.users[u.ID] = u
	return u.clone(), nil
}

func (s *MemoryStore) AddSavedBook(_ context.Context, userID string, b book.Book) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	if !u.HasBook(b.BookID) {
		u.SavedBooks = append(book.Clone(u.SavedBooks), b.Normalize())
		s.users[userID] = u
	}
	return u.clone(), nil
}

func (s *MemoryStore) RemoveSavedBook(_ context.Context, userID, bookID string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	if u.HasBook(bookID) {
		u.SavedBooks = book.Without(u.SavedBooks, bookID)
		s.users[userID] = u
	}
	return u.clone(), nil
}
