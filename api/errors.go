package api

import "errors"

var (
	// ErrUnauthorized signals an authentication or authorization failure
	// (401/403). Views surface a message and redirect to login; the token is
	// not refreshed.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrRequestFailed signals a request the backend rejected with an
	// application-level error. The wrapped message carries the detail.
	ErrRequestFailed = errors.New("api: request failed")
)
