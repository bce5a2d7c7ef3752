package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_RoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	content := "line one\r\nline two\r\n\r\n"
	require.Equal(t, http.StatusOK, doUpload(t, s.Handler(),
		formFile{field: "file", filename: "a%20b.txt", content: content}).Code)

	rec := get(s.Handler(), "/downloads/a%20b.txt")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestDownload_Range(t *testing.T) {
	s := newTestServer(t, nil)
	_, err := s.Storage().Write("digits.txt", []byte("0123456789"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/downloads/digits.txt", nil)
	req.Header.Set("Range", "bytes=2-5")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "2345", rec.Body.String())
	assert.Equal(t, "bytes 2-5/10", rec.Header().Get("Content-Range"))
}

func TestDownload_Head(t *testing.T) {
	s := newTestServer(t, nil)
	_, err := s.Storage().Write("a.txt", []byte("abc"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/downloads/a.txt", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))
}

func TestDownload_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	_, err := s.Storage().Write("a.txt", []byte("abc"))
	require.NoError(t, err)
	outside := filepath.Join(filepath.Dir(s.Storage().Path()), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Storage().Path(), "sub"), 0o755))

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing file", target: "/downloads/nope.txt"},
		{name: "directory itself", target: "/downloads/"},
		{name: "subdirectory", target: "/downloads/sub"},
		{name: "nested path", target: "/downloads/sub/a.txt"},
		{name: "outside storage", target: "/secret.txt"},
		{name: "other prefix", target: "/uploads/a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(s.Handler(), tt.target)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}
