package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// compressionResponseWriter wraps http.ResponseWriter to compress responses.
type compressionResponseWriter struct {
	http.ResponseWriter
	writer io.Writer
}

// Write compresses data before writing to the underlying writer.
func (crw *compressionResponseWriter) Write(b []byte) (int, error) {
	return crw.writer.Write(b)
}

func (crw *compressionResponseWriter) WriteHeader(code int) {
	crw.Header().Del("Content-Length")
	crw.ResponseWriter.WriteHeader(code)
}

// CompressionMiddleware gzips responses for clients that accept it. Only
// the HTML listing is compressed: downloads are served byte-exact with
// Range support, uploads answer with a one-line body, and /metrics
// negotiates its own encoding.
func CompressionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsCompression(r) || shouldSkipCompression(r) {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")

		next.ServeHTTP(&compressionResponseWriter{ResponseWriter: w, writer: gz}, r)
	})
}

// acceptsCompression checks if the client accepts gzip encoding.
func acceptsCompression(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// shouldSkipCompression determines if compression should be skipped for this request.
func shouldSkipCompression(r *http.Request) bool {
	return r.Method != http.MethodGet || r.URL.Path != "/"
}
