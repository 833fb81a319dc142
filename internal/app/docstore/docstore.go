// Package docstore is the MongoDB backend for user.Store. Each user is one
// document with its saved books embedded, so every set mutation is a single
// atomic findAndModify.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/app/book"
	"bookshelf/internal/app/user"
	"bookshelf/internal/pkg/logx"
)

// CollectionName is where user documents live.
const CollectionName = "users"

var _ user.Store = (*Store)(nil)

// document is the stored shape: the user plus a lowercased email used for
// case-insensitive lookup and uniqueness.
type document struct {
	user.User `bson:",inline"`
	EmailKey  string `bson:"emailKey"`
}

// Store implements user.Store on a MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

// Connect dials uri, pings the deployment, and returns the client and database.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logx.Info("connected to MongoDB", "database", dbName)
	return client, client.Database(dbName), nil
}

// NewStore returns a store over the users collection of db.
func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique username and email indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "emailKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (user.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (user.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.findOne(ctx, bson.M{"emailKey": emailKey(email)})
}

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	doc := document{
		User: user.User{
			ID:           uuid.NewString(),
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			SavedBooks:   []book.Book{},
		},
		EmailKey: emailKey(email),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, fmt.Errorf("%w: %s", user.ErrDuplicate, username)
		}
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return doc.User, nil
}

// AddSavedBook pushes b only when no element carries its bookId. A miss means
// either the user is gone or the book is already saved; the follow-up read
// tells the two apart.
func (s *Store) AddSavedBook(ctx context.Context, userID string, b book.Book) (user.User, error) {
	filter := bson.M{
		"_id":               userID,
		"savedBooks.bookId": bson.M{"$ne": b.BookID},
	}
	update := bson.M{"$push": bson.M{"savedBooks": b.Normalize()}}

	u, err := s.findAndModify(ctx, filter, update)
	if errors.Is(err, user.ErrNotFound) {
		return s.FindUserByID(ctx, userID)
	}
	return u, err
}

func (s *Store) RemoveSavedBook(ctx context.Context, userID, bookID string) (user.User, error) {
	filter := bson.M{"_id": userID}
	update := bson.M{"$pull": bson.M{"savedBooks": bson.M{"bookId": bookID}}}
	return s.findAndModify(ctx, filter, update)
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (user.User, error) {
	var doc document
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toUser(), nil
}

func (s *Store) findAndModify(ctx context.Context, filter, update bson.M) (user.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("failed to update saved books: %w", err)
	}
	return doc.toUser(), nil
}

func (d document) toUser() user.User {
	u := d.User
	u.SavedBooks = book.Clone(u.SavedBooks)
	return u
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
