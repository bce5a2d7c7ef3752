package storage

import "errors"

var (
	// ErrStorageUnavailable wraps failures to create or write the storage
	// directory.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidName is returned for filenames that cannot be stored flat
	// in the directory.
	ErrInvalidName = errors.New("invalid file name")

	// ErrNotFound is returned by Open when no regular file has the name.
	ErrNotFound = errors.New("file not found")
)
