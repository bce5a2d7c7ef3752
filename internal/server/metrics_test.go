package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Endpoint(t *testing.T) {
	s := newTestServer(t, nil)

	doUpload(t, s.Handler(),
		formFile{field: "file", filename: "a.txt", content: "12345"},
		formFile{field: "file", filename: "..", content: "x"},
	)
	get(s.Handler(), "/downloads/a.txt")
	get(s.Handler(), "/downloads/missing.txt")

	rec := get(s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `lfd_upload_requests_total{result="ok"} 1`)
	assert.Contains(t, body, "lfd_stored_files_total 1")
	assert.Contains(t, body, "lfd_stored_bytes_total 5")
	assert.Contains(t, body, `lfd_skipped_parts_total{reason="invalid_name"} 1`)
	assert.Contains(t, body, `lfd_downloads_total{result="ok"} 1`)
	assert.Contains(t, body, `lfd_downloads_total{result="not_found"} 1`)
	assert.Contains(t, body, `lfd_http_requests_total{code="200",method="POST"} 1`)
	assert.Contains(t, body, "lfd_uptime_seconds")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest(http.MethodGet, http.StatusOK, time.Millisecond)
		m.RecordUpload(resultOK)
		m.RecordStored(10)
		m.RecordSkipped("malformed_part")
		m.RecordDownload("ok")
		m.RecordSideEffectFailure("mirror")
	})
	assert.NotNil(t, m.Handler())
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, err := NewMetrics()
	require.NoError(t, err)
	b, err := NewMetrics()
	require.NoError(t, err)

	a.RecordStored(1)

	assert.Contains(t, get(a.Handler(), "/metrics").Body.String(), "lfd_stored_files_total 1")
	assert.Contains(t, get(b.Handler(), "/metrics").Body.String(), "lfd_stored_files_total 0")
}
