package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{"/", "/health", "/downloads/missing"} {
		rec := get(s.Handler(), target)
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"), target)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), target)
		assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"), target)
		assert.Equal(t, contentSecurityPolicy, rec.Header().Get("Content-Security-Policy"), target)
	}
}

func TestCompression_Listing(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))
	assert.Empty(t, rec.Header().Get("Content-Length"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	html, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Upload Files")
}

func TestCompression_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		accept string
	}{
		{name: "no accept-encoding", method: http.MethodGet, target: "/"},
		{name: "download", method: http.MethodGet, target: "/downloads/a.txt", accept: "gzip"},
		{name: "health", method: http.MethodGet, target: "/health", accept: "gzip"},
		{name: "head", method: http.MethodHead, target: "/", accept: "gzip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "plain")
			})).ServeHTTP(rec, req)

			assert.Empty(t, rec.Header().Get("Content-Encoding"))
			assert.Equal(t, "plain", rec.Body.String())
		})
	}
}
