package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumesJSON = `{
  "kind": "books#volumes",
  "items": [
    {
      "id": "B1",
      "volumeInfo": {
        "title": "Dune",
        "authors": ["Frank Herbert"],
        "description": "Spice.",
        "infoLink": "https://books.example/B1",
        "imageLinks": {"thumbnail": "https://img.example/B1.jpg"}
      }
    },
    {"id": "B2", "volumeInfo": {"title": "Anonymous Tales"}},
    {"volumeInfo": {"title": "no id"}}
  ]
}`

func TestGoogleBooks_Search(t *testing.T) {
	var gotQuery, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("maxResults")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumesJSON))
	}))
	defer srv.Close()

	g := NewGoogleBooks(GoogleBooksOptions{BaseURL: srv.URL + "/", MaxResults: 10})
	books, err := g.Search(context.Background(), "  dune ")
	require.NoError(t, err)

	assert.Equal(t, "dune", gotQuery)
	assert.Equal(t, "10", gotMax)
	require.Len(t, books, 2)

	assert.Equal(t, "B1", books[0].BookID)
	assert.Equal(t, []string{"Frank Herbert"}, books[0].Authors)
	assert.Equal(t, "https://img.example/B1.jpg", books[0].Image)
	assert.Equal(t, "https://books.example/B1", books[0].Link)

	assert.Equal(t, "B2", books[1].BookID)
	assert.NotNil(t, books[1].Authors)
	assert.Empty(t, books[1].Authors)
}

func TestGoogleBooks_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind":"books#volumes","totalItems":0}`))
	}))
	defer srv.Close()

	books, err := NewGoogleBooks(GoogleBooksOptions{BaseURL: srv.URL}).Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestGoogleBooks_EmptyQuery(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := NewGoogleBooks(GoogleBooksOptions{BaseURL: srv.URL}).Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, hits.Load())
}

func TestGoogleBooks_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
		{
			name: "slow provider",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := NewGoogleBooks(GoogleBooksOptions{BaseURL: srv.URL, Timeout: 100 * time.Millisecond})
			_, err := g.Search(context.Background(), "dune")
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestGoogleBooks_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGoogleBooks(GoogleBooksOptions{BaseURL: srv.URL, TripAfter: 2, OpenFor: time.Minute})
	for i := 0; i < 2; i++ {
		_, err := g.Search(context.Background(), "dune")
		require.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := g.Search(context.Background(), "dune")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGoogleBooks_CallerCancellationDoesNotTrip(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("q") == "hang" {
			started <- struct{}{}
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumesJSON))
	}))
	defer srv.Close()

	g := NewGoogleBooks(GoogleBooksOptions{BaseURL: srv.URL, TripAfter: 2, OpenFor: time.Minute})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := g.Search(cancelled, "dune")
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Zero(t, hits.Load(), "an already cancelled caller never reaches the provider")

	// callers that disconnect mid-request
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()
		_, err := g.Search(ctx, "hang")
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	books, err := g.Search(context.Background(), "dune")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}
