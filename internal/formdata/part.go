package formdata

import (
	"bytes"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

// Part is one parsed section of a multipart body.
type Part struct {
	// Name is the form field name from Content-Disposition.
	Name string
	// Filename is the percent-decoded filename parameter. HasFilename
	// tells an absent parameter apart from filename="".
	Filename    string
	HasFilename bool
	// ContentType is the part's own Content-Type header, if any.
	ContentType string
	// Payload is everything after the blank line, framing CRLF included.
	Payload []byte
}

// ParsePart separates the header block of raw from its payload and reads
// the filename from the Content-Disposition header. Parts without the
// blank line that ends the header block are reported as ErrMalformedPart.
func ParsePart(raw []byte) (Part, error) {
	i := bytes.Index(raw, headerEnd)
	if i < 0 {
		return Part{}, fmt.Errorf("%w: no blank line after part headers", ErrMalformedPart)
	}

	p := Part{Payload: raw[i+len(headerEnd):]}
	for _, line := range strings.Split(string(raw[:i]), "\r\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if strings.EqualFold(key, "Content-Type") {
			p.ContentType = strings.TrimSpace(value)
			continue
		}
		if !strings.EqualFold(key, "Content-Disposition") {
			continue
		}

		_, params, err := mime.ParseMediaType(strings.TrimSpace(value))
		if err != nil {
			return Part{}, fmt.Errorf("%w: content-disposition: %v", ErrMalformedPart, err)
		}
		p.Name = params["name"]
		if filename, ok := params["filename"]; ok {
			p.Filename = decodeFilename(filename)
			p.HasFilename = true
		}
	}
	return p, nil
}

// decodeFilename undoes percent-encoding some browsers apply to non-ASCII
// names. Invalid escapes leave the name as sent.
func decodeFilename(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
