package formdata

import (
	"bytes"
	"iter"
)

var (
	crlf      = []byte("\r\n")
	headerEnd = []byte("\r\n\r\n")
)

// Split yields the raw parts of body delimited by "--" + boundary. The
// bytes before the first delimiter and after the last one are dropped, as
// is any candidate whose header block has no Content-Disposition line.
// Yielded slices alias body. The sequence can be ranged over any number of
// times and always produces the same parts.
func Split(body []byte, boundary string) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if boundary == "" {
			return
		}
		delim := []byte("--" + boundary)

		start := bytes.Index(body, delim)
		if start < 0 {
			return
		}
		rest := body[start+len(delim):]
		for {
			next := bytes.Index(rest, delim)
			if next < 0 {
				return
			}
			part := rest[:next:next]
			rest = rest[next+len(delim):]

			if !hasDisposition(part) {
				continue
			}
			if !yield(part) {
				return
			}
		}
	}
}

func hasDisposition(part []byte) bool {
	header := part
	if i := bytes.Index(part, headerEnd); i >= 0 {
		header = part[:i]
	}
	return bytes.Contains(bytes.ToLower(header), []byte("content-disposition"))
}
