package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Render records one image produced by the service. The encoded text is
// never stored: QR payloads are typically otpauth:// URIs carrying a shared
// secret, so only its SHA-256 digest and length are kept.
type Render struct {
	ID         int64  `json:"id"`
	Provider   string `json:"provider"`
	TextSHA256 string `json:"text_sha256"`
	TextLength int    `json:"text_length"`
	Size       int    `json:"size"`
	Level      string `json:"level"`
	Margin     int    `json:"margin"`
	MimeType   string `json:"mime_type"`
	Bytes      int    `json:"bytes"`
	CreatedAt  int64  `json:"created_at"`
}

// SetText fills the digest and length fields for text.
func (r *Render) SetText(text string) {
	sum := sha256.Sum256([]byte(text))
	r.TextSHA256 = hex.EncodeToString(sum[:])
	r.TextLength = len(text)
}

// HistoryStore manages SQLite storage for render history.
type HistoryStore struct {
	db *sql.DB
}

const createRendersTable = `
CREATE TABLE IF NOT EXISTS renders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    provider TEXT NOT NULL,
    text_sha256 TEXT NOT NULL,
    text_length INTEGER NOT NULL,
    size INTEGER NOT NULL,
    level TEXT NOT NULL,
    margin INTEGER NOT NULL,
    mime_type TEXT NOT NULL,
    bytes INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_renders_created_at ON renders(created_at);
`

// NewHistoryStore opens (or creates) the SQLite database at dbPath and
// initialises the schema.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{createRendersTable, createIndexes} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &HistoryStore{db: db}, nil
}

// SaveRender inserts r and sets its ID. A zero CreatedAt is stamped with the
// current time.
func (s *HistoryStore) SaveRender(r *Render) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}

	const query = `
		INSERT INTO renders (provider, text_sha256, text_length, size, level, margin, mime_type, bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.Exec(query,
		r.Provider,
		r.TextSHA256,
		r.TextLength,
		r.Size,
		r.Level,
		r.Margin,
		r.MimeType,
		r.Bytes,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save render: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("save render: %w", err)
	}
	r.ID = id
	return nil
}

// GetRenders returns renders newest first. Use limit and offset for
// pagination.
func (s *HistoryStore) GetRenders(limit, offset int) ([]Render, error) {
	const query = `
		SELECT id, provider, text_sha256, text_length, size, level, margin, mime_type, bytes, created_at
		FROM renders
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get renders: %w", err)
	}
	defer rows.Close()

	var renders []Render
	for rows.Next() {
		var r Render
		if err := rows.Scan(
			&r.ID, &r.Provider, &r.TextSHA256, &r.TextLength, &r.Size, &r.Level,
			&r.Margin, &r.MimeType, &r.Bytes, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan render row: %w", err)
		}
		renders = append(renders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate render rows: %w", err)
	}
	return renders, nil
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
