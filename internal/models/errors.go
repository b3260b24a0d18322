package models

import "errors"

// Expected outcomes of the feed use cases. Every layer wraps them with %w so
// the HTTP layer can map each one to its own status.
var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("role is not allowed to perform this action")
	ErrNotFound           = errors.New("post not found")
	ErrNoFile             = errors.New("no file uploaded")
	ErrEmptyComment       = errors.New("comment text is empty")
	ErrStorageUnavailable = errors.New("media storage unavailable")
)
