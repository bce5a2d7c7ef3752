package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Upload is one stored file as seen by the audit trail.
type Upload struct {
	ID         uuid.UUID
	RequestID  string
	Filename   string // as sent by the client, percent-decoded
	StoredName string // name on disk
	SizeBytes  int64
	SHA256Hex  string
	ClientIP   string
	UserAgent  string
	Mirrored   bool
	CreatedAt  time.Time
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Store writes Upload rows to the uploads table.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection. The schema is expected to be
// migrated already.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts u. A zero ID is replaced by a fresh UUID and a zero
// CreatedAt by the current time.
func (s *Store) Record(ctx context.Context, u Upload) error {
	if s == nil || s.db == nil {
		return errors.New("audit store not configured")
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (
			id, request_id, filename, stored_name, size_bytes,
			sha256_hex, client_ip, user_agent, mirrored, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		u.ID,
		u.RequestID,
		u.Filename,
		u.StoredName,
		u.SizeBytes,
		u.SHA256Hex,
		u.ClientIP,
		nullString(u.UserAgent),
		u.Mirrored,
		u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", u.StoredName, err)
	}
	return nil
}

// Recent returns the newest uploads, at most limit of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, filename, stored_name, size_bytes,
		       sha256_hex, client_ip, user_agent, mirrored, created_at
		FROM uploads
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var uploads []Upload
	for rows.Next() {
		var (
			u  Upload
			ua sql.NullString
		)
		if err := rows.Scan(
			&u.ID, &u.RequestID, &u.Filename, &u.StoredName, &u.SizeBytes,
			&u.SHA256Hex, &u.ClientIP, &ua, &u.Mirrored, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		u.UserAgent = ua.String
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
