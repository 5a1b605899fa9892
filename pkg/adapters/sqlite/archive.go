// Package sqlite provides a SQLite-backed build archive.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/ports"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	version    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	nodes      INTEGER NOT NULL,
	endings    INTEGER NOT NULL,
	warnings   INTEGER NOT NULL,
	hash       TEXT NOT NULL,
	unchanged  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS builds_created_at ON builds (created_at);
`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Archive implements ports.BuildArchive.
type Archive struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Option configures an Archive.
type Option func(*Archive)

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

// Open opens (or creates) the archive database at path.
func Open(path string, opts ...Option) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	a := &Archive{sqlDB: sqlDB, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Close closes the SQLite handle.
func (a *Archive) Close() error {
	if a == nil || a.sqlDB == nil {
		return nil
	}
	return a.sqlDB.Close()
}

// Hash returns the hex sha256 of doc with meta.updated_utc cleared.
func Hash(doc *domain.Document) (string, error) {
	stripped := *doc
	stripped.Meta.UpdatedUTC = ""
	data, err := json.Marshal(&stripped)
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Record inserts one build row.
func (a *Archive) Record(ctx context.Context, doc *domain.Document, warnings int) (ports.BuildRecord, error) {
	if err := ctx.Err(); err != nil {
		return ports.BuildRecord{}, err
	}
	if doc == nil {
		return ports.BuildRecord{}, fmt.Errorf("document is required")
	}
	hash, err := Hash(doc)
	if err != nil {
		return ports.BuildRecord{}, err
	}

	var last string
	err = a.sqlDB.QueryRowContext(ctx,
		`SELECT hash FROM builds ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ports.BuildRecord{}, fmt.Errorf("read previous build: %w", err)
	}

	rec := ports.BuildRecord{
		ID:        uuid.NewString(),
		Title:     doc.Meta.Title,
		Version:   doc.Meta.Version,
		CreatedAt: fromMillis(toMillis(a.now())),
		Nodes:     doc.Meta.TotalNodes,
		Endings:   doc.Meta.Endings,
		Warnings:  warnings,
		Hash:      hash,
		Unchanged: last == hash,
	}

	_, err = a.sqlDB.ExecContext(ctx,
		`INSERT INTO builds (id, title, version, created_at, nodes, endings, warnings, hash, unchanged)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.Version, toMillis(rec.CreatedAt), rec.Nodes, rec.Endings, rec.Warnings, rec.Hash, rec.Unchanged,
	)
	if err != nil {
		return ports.BuildRecord{}, fmt.Errorf("insert build: %w", err)
	}
	return rec, nil
}

// List returns the latest builds first.
func (a *Archive) List(ctx context.Context, limit int) ([]ports.BuildRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `SELECT id, title, version, created_at, nodes, endings, warnings, hash, unchanged
		FROM builds ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var out []ports.BuildRecord
	for rows.Next() {
		var (
			rec     ports.BuildRecord
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Version, &created, &rec.Nodes, &rec.Endings, &rec.Warnings, &rec.Hash, &rec.Unchanged); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.CreatedAt = fromMillis(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}
