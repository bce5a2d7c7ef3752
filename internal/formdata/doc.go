// Package formdata extracts uploaded files from a multipart/form-data
// request body that is already held in memory. It works on the raw bytes:
// the body is split on the boundary delimiter, each part's header block is
// parsed for a Content-Disposition filename, and the framing CRLF is
// removed from the payload so the stored bytes match the uploaded file.
package formdata
