package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"lan-file-drop/internal/audit"
	"lan-file-drop/internal/formdata"
	"lan-file-drop/internal/storage"
)

const (
	uploadSuccessBody = "Upload successful.\n"

	// Default budget shared by all mirror and audit writes of one request.
	defaultSideEffectTimeout = 30 * time.Second
)

// uploadHandler handles POST requests carrying multipart/form-data. The
// whole body is read into memory (exactly Content-Length bytes), split on
// the boundary, and every part with a non-blank filename is written to the
// storage directory, replacing any file of the same name.
//
// The response is 200 "Upload successful." whether zero or many files
// were stored. Parts that cannot be parsed or named are skipped. A storage
// failure aborts with 500 but leaves files written earlier in the same
// request in place.
func (cfg Config) uploadHandler(dir *storage.Dir, m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := cfg.logger()

		boundary, err := formdata.ParseBoundary(r.Header.Get("Content-Type"))
		if err != nil {
			m.RecordUpload(resultInvalidContentType)
			logger.Warn(ctx, "upload_rejected", Fields{"reason": resultInvalidContentType}, err)
			http.Error(w, "Bad request: Content-Type must be multipart/form-data with a boundary.", http.StatusBadRequest)
			return
		}

		if r.ContentLength < 0 {
			m.RecordUpload(resultLengthRequired)
			logger.Warn(ctx, "upload_rejected", Fields{"reason": resultLengthRequired}, nil)
			http.Error(w, "Content-Length required.", http.StatusLengthRequired)
			return
		}
		if cfg.MaxUploadBytes > 0 && r.ContentLength > cfg.MaxUploadBytes {
			m.RecordUpload(resultTooLarge)
			logger.Warn(ctx, "upload_rejected", Fields{
				"reason":         resultTooLarge,
				"content_length": r.ContentLength,
				"limit":          cfg.MaxUploadBytes,
			}, nil)
			http.Error(w, "Upload too large; limit is "+strconv.FormatInt(cfg.MaxUploadBytes, 10)+" bytes.", http.StatusRequestEntityTooLarge)
			return
		}

		body, err := formdata.ReadBody(r.Body, r.ContentLength)
		if err != nil {
			m.RecordUpload(resultIncompleteBody)
			logger.Warn(ctx, "upload_rejected", Fields{"reason": resultIncompleteBody}, err)
			http.Error(w, "Bad request: request body shorter than Content-Length.", http.StatusBadRequest)
			return
		}

		if err := dir.Ensure(); err != nil {
			m.RecordUpload(resultStorageUnavailable)
			logger.Error(ctx, "storage_unavailable", Fields{"dir": dir.Path()}, err)
			http.Error(w, "Storage unavailable.", http.StatusInternalServerError)
			return
		}

		// One deadline covers the mirror and audit writes of every file in
		// this request; once it passes, later side effects fail fast.
		sideCtx, cancelSide := context.WithTimeout(ctx, cfg.sideEffectTimeout())
		defer cancelSide()

		var stored, storedBytes int
		for f, err := range formdata.Files(body, boundary) {
			if err != nil {
				m.RecordSkipped("malformed_part")
				logger.Warn(ctx, "part_skipped", Fields{"reason": "malformed_part"}, err)
				continue
			}

			name, err := dir.Write(f.Filename, f.Content)
			if errors.Is(err, storage.ErrInvalidName) {
				m.RecordSkipped("invalid_name")
				logger.Warn(ctx, "part_skipped", Fields{"reason": "invalid_name", "filename": f.Filename}, err)
				continue
			}
			if err != nil {
				m.RecordUpload(resultStorageUnavailable)
				logger.Error(ctx, "write_failed", Fields{"filename": f.Filename, "stored_before_failure": stored}, err)
				http.Error(w, "Storage unavailable.", http.StatusInternalServerError)
				return
			}

			stored++
			storedBytes += len(f.Content)
			m.RecordStored(len(f.Content))
			logger.Info(ctx, "file_stored", Fields{"name": name, "bytes": len(f.Content)})

			cfg.afterStore(sideCtx, r, f, name, m)
		}

		m.RecordUpload(resultOK)
		logger.Info(ctx, "upload_complete", Fields{
			"files": stored,
			"bytes": storedBytes,
			"ms":    time.Since(start).Milliseconds(),
		})

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, uploadSuccessBody)
	})
}

// afterStore copies a freshly stored file to the mirror and records it in
// the audit trail. Failures are logged and counted; the local copy stays
// authoritative. ctx carries the request's side-effect deadline.
func (cfg Config) afterStore(ctx context.Context, r *http.Request, f formdata.File, name string, m *Metrics) {
	logger := cfg.logger()

	mirrored := false
	if cfg.Mirror != nil {
		err := cfg.Mirror.Put(ctx, name, f.ContentType, f.Content)
		if err != nil {
			m.RecordSideEffectFailure("mirror")
			logger.Warn(ctx, "mirror_failed", Fields{"name": name}, err)
		} else {
			mirrored = true
		}
	}

	if cfg.Audit != nil {
		err := cfg.Audit.Record(ctx, audit.Upload{
			RequestID:  RequestIDFromContext(ctx),
			Filename:   f.Filename,
			StoredName: name,
			SizeBytes:  int64(len(f.Content)),
			SHA256Hex:  audit.Checksum(f.Content),
			ClientIP:   getClientIP(r, cfg.TrustProxy),
			UserAgent:  r.UserAgent(),
			Mirrored:   mirrored,
		})
		if err != nil {
			m.RecordSideEffectFailure("audit")
			logger.Warn(ctx, "audit_failed", Fields{"name": name}, err)
		}
	}
}
