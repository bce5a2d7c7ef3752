package formdata

import "bytes"

// TrimPayload removes the CRLF that precedes the next delimiter. Only that
// one CRLF is framing; any other trailing bytes belong to the file.
func TrimPayload(payload []byte) []byte {
	return bytes.TrimSuffix(payload, crlf)
}
