/*
Package client is the Go client for the bookshelf HTTP API.

API is a thin, stateless transport. Session holds the credential and the
cached current-user snapshot for one signed-in user and keeps that snapshot
in step with confirmed mutations through Reconcile.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookshelf/internal/app/book"
	"bookshelf/internal/app/user"
)

// APIError is a non-success envelope returned by the server.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bookshelf: %s (code %d, HTTP %d)", e.Message, e.Code, e.Status)
}

// HasCode reports whether err is an *APIError with code.
func HasCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// AuthResult is the register and login answer.
type AuthResult struct {
	Token string       `json:"token"`
	User  user.Profile `json:"user"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// API calls the bookshelf HTTP surface.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI returns an API for the server at baseURL. A nil httpClient gets a
// client with a 15 second timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (a *API) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var res AuthResult
	err := a.call(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &res)
	return res, err
}

func (a *API) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	err := a.call(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	return res, err
}

func (a *API) Me(ctx context.Context, token string) (user.Profile, error) {
	var p user.Profile
	err := a.call(ctx, http.MethodGet, "/api/users/me", token, nil, &p)
	return p, err
}

func (a *API) Profile(ctx context.Context, idOrUsername string) (user.Profile, error) {
	var p user.Profile
	err := a.call(ctx, http.MethodGet, "/api/users/"+url.PathEscape(idOrUsername), "", nil, &p)
	return p, err
}

func (a *API) Search(ctx context.Context, query string) ([]book.Book, error) {
	var books []book.Book
	err := a.call(ctx, http.MethodGet, "/api/books/search?q="+url.QueryEscape(query), "", nil, &books)
	return books, err
}

func (a *API) SaveBook(ctx context.Context, token string, b book.Book) (user.Profile, error) {
	var p user.Profile
	err := a.call(ctx, http.MethodPost, "/api/users/me/books", token, b, &p)
	return p, err
}

func (a *API) RemoveBook(ctx context.Context, token, bookID string) (user.Profile, error) {
	var p user.Profile
	err := a.call(ctx, http.MethodDelete, "/api/users/me/books/"+url.PathEscape(bookID), token, nil, &p)
	return p, err
}

func (a *API) call(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode response (HTTP %d): %w", method, path, resp.StatusCode, err)
	}

	if env.Code != 0 || resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}
