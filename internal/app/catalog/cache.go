package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bookshelf/internal/app/book"
	"bookshelf/internal/pkg/logx"
)

// DefaultCacheTTL is used when NewCachedSearcher gets a non-positive ttl.
const DefaultCacheTTL = 10 * time.Minute

const cacheKeyPrefix = "catalog:search:"

// CachedSearcher keeps normalized results in redis. Cache errors are logged
// and the search falls through to the wrapped Searcher.
type CachedSearcher struct {
	next Searcher
	rc   *redis.Client
	ttl  time.Duration
}

var _ Searcher = (*CachedSearcher)(nil)

// NewCachedSearcher wraps next. A nil rc disables caching.
func NewCachedSearcher(next Searcher, rc *redis.Client, ttl time.Duration) *CachedSearcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSearcher{next: next, rc: rc, ttl: ttl}
}

// Key returns the redis key for query.
func Key(query string) string {
	return cacheKeyPrefix + strings.ToLower(strings.TrimSpace(query))
}

func (c *CachedSearcher) Search(ctx context.Context, query string) ([]book.Book, error) {
	if c.rc == nil || strings.TrimSpace(query) == "" {
		return c.next.Search(ctx, query)
	}

	key := Key(query)
	if books, ok := c.get(ctx, key); ok {
		return books, nil
	}

	books, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, books)
	return books, nil
}

func (c *CachedSearcher) get(ctx context.Context, key string) ([]book.Book, bool) {
	raw, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
		return nil, false
	}

	var books []book.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache entry corrupt")
		return nil, false
	}
	return book.Clone(books), true
}

func (c *CachedSearcher) set(ctx context.Context, key string, books []book.Book) {
	raw, err := json.Marshal(books)
	if err != nil {
		return
	}
	if err := c.rc.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}
