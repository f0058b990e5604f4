package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an account with that email already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials indicates a wrong email/password combination.
	// Deliberately identical for "no such account" and "wrong password".
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indicates authentication is missing or failed
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the account lacks the role required for this operation
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the token's expiry time has passed
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the token is malformed or its signature does not verify
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenWrongKind indicates an access token was presented where a refresh
	// token was expected, or the other way around
	ErrTokenWrongKind = errors.New("token wrong kind")

	// ErrInternal indicates a store or signing failure; details stay server-side
	ErrInternal = errors.New("internal error")
)
