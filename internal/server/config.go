package server

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"lan-file-drop/internal/audit"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// Mirror receives a copy of every stored file.
type Mirror interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Ping(ctx context.Context) error
}

// AuditRecorder keeps a record of every stored file.
type AuditRecorder interface {
	Record(ctx context.Context, u audit.Upload) error
	Ping(ctx context.Context) error
}

// Config is everything New needs. Mirror and Audit are optional.
type Config struct {
	Addr             string // e.g. "192.168.1.20:8080"
	StorageDir       string // e.g. "downloads"
	MaxUploadBytes   int64  // 0 means no limit
	UploadsPerMinute int    // per client IP, 0 means no limit
	TrustProxy       bool   // take client IPs from X-Forwarded-For / X-Real-IP
	Build            BuildInfo

	// SideEffectTimeout bounds all mirror and audit writes of one upload
	// request together. 0 means 30s.
	SideEffectTimeout time.Duration

	Mirror Mirror
	Audit  AuditRecorder
	Logger *Logger
}

func (cfg Config) sideEffectTimeout() time.Duration {
	if cfg.SideEffectTimeout > 0 {
		return cfg.SideEffectTimeout
	}
	return defaultSideEffectTimeout
}

func (cfg Config) logger() *Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return DefaultLogger
}

// ConfigValidationError represents a configuration validation error.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator collects validation errors so they can be reported
// together.
type ConfigValidator struct {
	errors []ConfigValidationError
}

// AddError adds a validation error.
func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *ConfigValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *ConfigValidator) Errors() []ConfigValidationError {
	return v.errors
}

// Err returns nil or one error listing every problem.
func (v *ConfigValidator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d error(s):", len(v.errors))
	for i, err := range v.errors {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return fmt.Errorf("%s", sb.String())
}

// Validate checks cfg before the server is built.
func (cfg Config) Validate() error {
	v := &ConfigValidator{}

	if _, port, err := net.SplitHostPort(cfg.Addr); err != nil {
		v.AddError("Addr", fmt.Sprintf("must be host:port, got %q", cfg.Addr))
	} else if port == "" {
		v.AddError("Addr", "port is empty")
	}

	if strings.TrimSpace(cfg.StorageDir) == "" {
		v.AddError("StorageDir", "must not be empty")
	} else {
		switch filepath.Base(filepath.Clean(cfg.StorageDir)) {
		case ".", "..", string(filepath.Separator):
			v.AddError("StorageDir", fmt.Sprintf("%q has no usable directory name for download URLs", cfg.StorageDir))
		}
	}

	if cfg.MaxUploadBytes < 0 {
		v.AddError("MaxUploadBytes", "must not be negative")
	}
	if cfg.SideEffectTimeout < 0 {
		v.AddError("SideEffectTimeout", "must not be negative")
	}
	if cfg.UploadsPerMinute < 0 {
		v.AddError("UploadsPerMinute", "must not be negative")
	}

	return v.Err()
}
