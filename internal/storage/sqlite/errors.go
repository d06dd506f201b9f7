package sqlite

import "errors"

// Errors returned by journal operations.
var (
	ErrNotFound      = errors.New("record not found")
	ErrStorageClosed = errors.New("storage is closed")
)
