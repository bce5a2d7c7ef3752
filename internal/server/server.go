package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"lan-file-drop/internal/storage"
)

type Server struct {
	httpServer *http.Server
	dir        *storage.Dir
	metrics    *Metrics
	limiter    *rateLimiter
}

// New validates cfg and builds the server with its routes:
//
//	GET  /          upload form and file listing
//	GET  /health    liveness
//	GET  /ready     readiness of storage, mirror and audit
//	GET  /metrics   Prometheus metrics
//	GET  /...       files under /<storage dir name>/, 404 otherwise
//	POST /...       multipart upload
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics, err := NewMetrics()
	if err != nil {
		return nil, err
	}

	dir := storage.NewDir(cfg.StorageDir)
	s := &Server{dir: dir, metrics: metrics}

	var upload http.Handler = cfg.uploadHandler(dir, metrics)
	if cfg.UploadsPerMinute > 0 {
		s.limiter = newRateLimiter(cfg.UploadsPerMinute, time.Minute)
		s.limiter.trustProxy = cfg.TrustProxy
		upload = s.limiter.middleware(upload)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", cfg.listingHandler(dir))
	mux.HandleFunc("GET /health", cfg.healthHandler)
	mux.Handle("GET /ready", cfg.readyHandler(dir))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /", cfg.downloadHandler(dir, metrics))
	mux.Handle("POST /", upload)

	// Wrap middleware: requestID -> logging -> security headers -> compression -> mux
	var handler http.Handler = mux
	handler = CompressionMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(metrics, cfg.TrustProxy, handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Storage returns the storage directory handle.
func (s *Server) Storage() *storage.Dir {
	return s.dir
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. A clean shutdown
// returns nil.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	return s.httpServer.Shutdown(ctx)
}
