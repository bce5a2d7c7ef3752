package formdata

import (
	"fmt"
	"mime"
	"strings"
)

const mediaType = "multipart/form-data"

// ParseBoundary returns the boundary parameter of a multipart/form-data
// Content-Type value, e.g. "multipart/form-data; boundary=XYZ" -> "XYZ".
func ParseBoundary(contentType string) (string, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return "", fmt.Errorf("%w: missing Content-Type header", ErrInvalidContentType)
	}

	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContentType, err)
	}
	if mt != mediaType {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrInvalidContentType, mediaType, mt)
	}

	boundary := strings.TrimSpace(params["boundary"])
	if boundary == "" {
		return "", fmt.Errorf("%w: missing boundary parameter", ErrInvalidContentType)
	}
	return boundary, nil
}
