package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MirrorConfig points at an S3-compatible bucket that receives a copy of
// every stored file.
type MirrorConfig struct {
	Endpoint  string // "minio:9000" or "https://minio:9000"
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string // object key prefix, defaults to "uploads/"
}

// Enabled reports whether enough settings are present to build a mirror.
func (c MirrorConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// Mirror copies stored files into object storage.
type Mirror struct {
	client *minio.Client
	bucket string
	prefix string
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}

// NewMirror connects to the endpoint and checks the bucket exists.
func NewMirror(ctx context.Context, cfg MirrorConfig) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("mirror configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket does not exist: %s", cfg.Bucket)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "uploads/"
	}
	return &Mirror{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// ObjectKey is the key a stored file called name is mirrored under.
func (m *Mirror) ObjectKey(name string) string {
	return path.Join(m.prefix, name)
}

// Put uploads data as the object for name, replacing any previous copy.
func (m *Mirror) Put(ctx context.Context, name, contentType string, data []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(
		ctx,
		m.bucket,
		m.ObjectKey(name),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("mirror %s: %w", name, err)
	}
	return nil
}

// Ping checks the bucket is still reachable.
func (m *Mirror) Ping(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket does not exist: %s", m.bucket)
	}
	return nil
}
