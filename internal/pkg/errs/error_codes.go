/*
Package errs provides custom error types and application-level error code constants.

These codes identify business and system failures both inside the server and
on the wire, where clients receive them in the response envelope.
*/
package errs

// 1xxx: request handling
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not JSON.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON for the target shape.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON document.
	ErrExtraContentInBody = 1004
)

// 3xxx: identity and accounts
const (
	// ErrUnauthenticated indicates that the operation requires a valid credential and none was presented.
	ErrUnauthenticated = 3001

	// ErrAuthenticationFailed indicates a failed login. It never says whether the
	// account or the password was wrong.
	ErrAuthenticationFailed = 3002

	// ErrConflict indicates that the email or username is already registered.
	ErrConflict = 3003

	// ErrNotFound indicates that the requested public profile does not exist.
	ErrNotFound = 3004
)

// 4xxx: upstream collaborators
const (
	// ErrUpstreamUnavailable indicates that the book catalog failed, timed out or is being shed.
	ErrUpstreamUnavailable = 4001
)

// 5xxx: internal
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000
)
