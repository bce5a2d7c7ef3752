package formdata

import (
	"iter"
	"strings"
)

// File is an uploaded file recovered from one part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Files walks the parts of body and yields every part that names a file.
// Parts that fail to parse are yielded with a non-nil error so the caller
// can log and skip them. Parts with a missing or blank filename are
// skipped silently.
func Files(body []byte, boundary string) iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		for raw := range Split(body, boundary) {
			p, err := ParsePart(raw)
			if err != nil {
				if !yield(File{}, err) {
					return
				}
				continue
			}
			if !p.HasFilename || strings.TrimSpace(p.Filename) == "" {
				continue
			}
			f := File{
				Field:       p.Name,
				Filename:    p.Filename,
				ContentType: p.ContentType,
				Content:     TrimPayload(p.Payload),
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}
