/*
Package errs provides custom error types and application-level error code constants.

This file maps each code to the message and HTTP status clients receive.
*/
package errs

import "net/http"

var errorMap = map[int]CustomError{
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Malformed request body.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},

	ErrUnauthenticated:      {Code: ErrUnauthenticated, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrAuthenticationFailed: {Code: ErrAuthenticationFailed, Message: "Incorrect email or password.", Status: http.StatusUnauthorized},
	ErrConflict:             {Code: ErrConflict, Message: "An account with that email or username already exists.", Status: http.StatusConflict},
	ErrNotFound:             {Code: ErrNotFound, Message: "User not found.", Status: http.StatusNotFound},

	ErrUpstreamUnavailable: {Code: ErrUpstreamUnavailable, Message: "Book search is unavailable right now. Please try again later.", Status: http.StatusBadGateway},

	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
