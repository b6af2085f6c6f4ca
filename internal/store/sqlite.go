package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    document   TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);
CREATE TABLE IF NOT EXISTS assets (
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    asset_key  TEXT NOT NULL,
    mime_type  TEXT NOT NULL,
    data       BLOB NOT NULL,
    PRIMARY KEY (project_id, asset_key)
);`

// SQLiteStore persists projects in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ ProjectStore = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("SQLite project store opened")
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) PutProject(ctx context.Context, p *Project) error {
	stamp(p, s.now())
	rec, assets := encode(p)
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal project %s: %w", p.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO projects (id, title, document, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            document = excluded.document,
            updated_at = excluded.updated_at`,
		rec.ID, rec.Title, string(doc), rec.CreatedAt, rec.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert project %s: %w", p.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE project_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear assets %s: %w", p.ID, err)
	}
	for _, ref := range rec.assetKeys() {
		a := assets[ref.Key]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assets (project_id, asset_key, mime_type, data) VALUES (?, ?, ?, ?)`,
			rec.ID, ref.Key, a.MIMEType, a.Data,
		); err != nil {
			return fmt.Errorf("insert asset %s/%s: %w", p.ID, ref.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit project %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*Project, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM projects WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select project %s: %w", id, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal project %s: %w", id, err)
	}
	rec.ID = id

	rows, err := s.db.QueryContext(ctx, `SELECT asset_key, data FROM assets WHERE project_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("select assets %s: %w", id, err)
	}
	defer rows.Close()

	data := make(map[string][]byte)
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("scan asset %s: %w", id, err)
		}
		data[key] = blob
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets %s: %w", id, err)
	}
	return decode(rec, data), nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var list []Summary
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		var rec record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			log.Warn().Err(err).Str("project", id).Msg("Skipping unreadable project document")
			continue
		}
		rec.ID = id
		list = append(list, rec.summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	sortSummaries(list)
	return list, nil
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete assets %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
