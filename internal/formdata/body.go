package formdata

import (
	"bytes"
	"fmt"
	"io"
)

// initialBodyBuf caps the up-front allocation. The declared length comes
// from the client; the buffer only grows as bytes actually arrive.
const initialBodyBuf = 64 << 10

// ReadBody reads exactly n bytes from r. A stream that ends early yields
// ErrIncompleteBody; the partial bytes are discarded.
func ReadBody(r io.Reader, n int64) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: unknown length", ErrIncompleteBody)
	}
	if r == nil {
		r = eofReader{}
	}

	var buf bytes.Buffer
	buf.Grow(int(min(n, initialBodyBuf)))
	read, err := io.Copy(&buf, io.LimitReader(r, n))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncompleteBody, err)
	}
	if read < n {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrIncompleteBody, read, n)
	}
	return buf.Bytes(), nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
