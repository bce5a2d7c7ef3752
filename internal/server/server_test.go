package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lan-file-drop/internal/audit"
)

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		Addr:       "127.0.0.1:0",
		StorageDir: filepath.Join(t.TempDir(), "downloads"),
		Logger:     NewLogger(io.Discard, LogLevelError, false),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

type formFile struct {
	field    string
	filename string
	content  string
	plain    bool // text field, no filename parameter
}

// multipartBody builds a request body the way a browser form would.
func multipartBody(t *testing.T, files ...formFile) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		var (
			w   io.Writer
			err error
		)
		if f.plain {
			w, err = mw.CreateFormField(f.field)
		} else {
			w, err = mw.CreateFormFile(f.field, f.filename)
		}
		require.NoError(t, err)
		_, err = io.WriteString(w, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func doUpload(t *testing.T, h http.Handler, files ...formFile) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func storedNames(t *testing.T, s *Server) []string {
	t.Helper()
	entries, err := s.Storage().List()
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

type fakeMirror struct {
	mu   sync.Mutex
	puts map[string]string
	err  error
}

func (f *fakeMirror) Put(_ context.Context, name, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = make(map[string]string)
	}
	f.puts[name] = string(data)
	return nil
}

func (f *fakeMirror) Ping(context.Context) error { return f.err }

type fakeAudit struct {
	mu      sync.Mutex
	uploads []audit.Upload
	err     error
}

func (f *fakeAudit) Record(_ context.Context, u audit.Upload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, u)
	return nil
}

func (f *fakeAudit) Ping(context.Context) error { return f.err }

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "ok", cfg: Config{Addr: "0.0.0.0:8080", StorageDir: "downloads"}},
		{name: "no port", cfg: Config{Addr: "localhost", StorageDir: "downloads"}, wantErr: "Addr"},
		{name: "empty dir", cfg: Config{Addr: ":8080", StorageDir: " "}, wantErr: "StorageDir"},
		{name: "dot dir", cfg: Config{Addr: ":8080", StorageDir: "."}, wantErr: "StorageDir"},
		{name: "root dir", cfg: Config{Addr: ":8080", StorageDir: "/"}, wantErr: "StorageDir"},
		{name: "negative limit", cfg: Config{Addr: ":8080", StorageDir: "d", MaxUploadBytes: -1}, wantErr: "MaxUploadBytes"},
		{name: "negative side effect timeout", cfg: Config{Addr: ":8080", StorageDir: "d", SideEffectTimeout: -time.Second}, wantErr: "SideEffectTimeout"},
		{name: "negative rate", cfg: Config{Addr: ":8080", StorageDir: "d", UploadsPerMinute: -1}, wantErr: "UploadsPerMinute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Addr: "nope", StorageDir: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader("x")))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodPost)
}

func TestServe_ShutdownIsClean(t *testing.T) {
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}

func TestServer_Storage(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, "downloads", s.Storage().Name())
	assert.Equal(t, "127.0.0.1:0", s.Addr())

	_, err := os.Stat(s.Storage().Path())
	assert.True(t, os.IsNotExist(err), "storage dir is created lazily")
}
