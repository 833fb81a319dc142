package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"bookshelf/internal/app/book"
	"bookshelf/internal/pkg/logx"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/books/v1"
	DefaultTimeout    = 5 * time.Second
	DefaultMaxResults = 20

	// maxBodyBytes caps how much of a provider answer is read.
	maxBodyBytes = 4 << 20
)

// errCallerGone marks a fetch abandoned because the caller's context ended.
// The breaker does not count it against the provider.
var errCallerGone = errors.New("caller context ended")

// GoogleBooksOptions configures NewGoogleBooks. Zero fields take defaults.
type GoogleBooksOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
	HTTPClient *http.Client

	// TripAfter is the number of consecutive failures that opens the circuit.
	TripAfter uint32
	// OpenFor is how long the circuit stays open before a trial request.
	OpenFor time.Duration
}

// GoogleBooks searches the Google Books volumes API. Every call is bounded by
// Timeout and guarded by a circuit breaker.
type GoogleBooks struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxResults int
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
}

var _ Searcher = (*GoogleBooks)(nil)

// NewGoogleBooks builds a client from opts.
func NewGoogleBooks(opts GoogleBooksOptions) *GoogleBooks {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxResults <= 0 || opts.MaxResults > 40 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.TripAfter == 0 {
		opts.TripAfter = 5
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 30 * time.Second
	}

	tripAfter := opts.TripAfter
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-books",
		MaxRequests: 1,
		Timeout:     opts.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logx.Warn("catalog circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &GoogleBooks{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		timeout:    opts.Timeout,
		maxResults: opts.MaxResults,
		client:     opts.HTTPClient,
		breaker:    breaker,
	}
}

// Search returns normalized books matching query. A caller that cancels or
// runs out of time gets its own context error and leaves the breaker alone.
func (g *GoogleBooks) Search(ctx context.Context, query string) ([]book.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(parent, g.timeout)
	defer cancel()

	res, err := g.breaker.Execute(func() (interface{}, error) {
		books, err := g.fetch(ctx, query)
		if err != nil && parent.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, parent.Err())
		}
		return books, err
	})
	if err != nil {
		if errors.Is(err, errCallerGone) {
			return nil, fmt.Errorf("catalog search: %w", parent.Err())
		}
		logx.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("catalog search failed")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return res.([]book.Book), nil
}

func (g *GoogleBooks) fetch(ctx context.Context, query string) ([]book.Book, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(g.maxResults))
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body volumesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.books(), nil
}

type volumesResponse struct {
	Items []volume `json:"items"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title       string   `json:"title"`
		Authors     []string `json:"authors"`
		Description string   `json:"description"`
		InfoLink    string   `json:"infoLink"`
		ImageLinks  struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// books normalizes volumes, dropping entries without an id.
func (r volumesResponse) books() []book.Book {
	out := make([]book.Book, 0, len(r.Items))
	for _, v := range r.Items {
		if v.ID == "" {
			continue
		}
		out = append(out, book.Book{
			BookID:      v.ID,
			Title:       v.VolumeInfo.Title,
			Authors:     v.VolumeInfo.Authors,
			Description: v.VolumeInfo.Description,
			Image:       v.VolumeInfo.ImageLinks.Thumbnail,
			Link:        v.VolumeInfo.InfoLink,
		}.Normalize())
	}
	return out
}
