package formdata

import "errors"

var (
	// ErrInvalidContentType is returned when the Content-Type header is
	// missing, is not multipart/form-data, or carries no boundary.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrIncompleteBody is returned when fewer bytes than the declared
	// Content-Length arrive before the peer closes the connection.
	ErrIncompleteBody = errors.New("incomplete body")

	// ErrMalformedPart marks a single part that cannot be parsed. Callers
	// skip the part and keep going.
	ErrMalformedPart = errors.New("malformed part")
)
