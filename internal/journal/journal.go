// Package journal records tree editor edits applied to documents in a sqlite
// database, so earlier document text can be listed and restored.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/livefir/iteria"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// ErrNotFound is returned by Get for an unknown revision
var ErrNotFound = errors.New("revision not found")

// Journal is an iteria.Journal backed by sqlite
type Journal struct {
	db *sql.DB
}

// Open opens or creates the database at path and runs pending migrations
func Open(ctx context.Context, path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration up failed: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Version returns the applied schema version
func (j *Journal) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, j.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Record stores rev, assigning an ID and timestamp when missing
func (j *Journal) Record(ctx context.Context, rev iteria.Revision) (iteria.Revision, error) {
	if rev.DocumentURI == "" {
		return iteria.Revision{}, errors.New("revision has no document")
	}
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	if rev.AppliedAt.IsZero() {
		rev.AppliedAt = time.Now()
	}
	rev.AppliedAt = rev.AppliedAt.UTC()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO revisions (id, document_uri, before_text, after_text, applied_at) VALUES (?, ?, ?, ?, ?)`,
		rev.ID, rev.DocumentURI, rev.Before, rev.After, rev.AppliedAt.UnixNano())
	if err != nil {
		return iteria.Revision{}, fmt.Errorf("failed to record revision: %w", err)
	}
	return rev, nil
}

// Get returns the revision with the given ID
func (j *Journal) Get(ctx context.Context, id string) (iteria.Revision, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, document_uri, before_text, after_text, applied_at FROM revisions WHERE id = ?`, id)

	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return iteria.Revision{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return iteria.Revision{}, fmt.Errorf("failed to read revision: %w", err)
	}
	return rev, nil
}

// List returns up to limit revisions of a document, newest first.
// A limit of zero or less returns all of them.
func (j *Journal) List(ctx context.Context, documentURI string, limit int) ([]iteria.Revision, error) {
	query := `SELECT id, document_uri, before_text, after_text, applied_at FROM revisions
		WHERE document_uri = ? ORDER BY applied_at DESC, rowid DESC`
	args := []any{documentURI}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revs []iteria.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read revision: %w", err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	return revs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(s scanner) (iteria.Revision, error) {
	var rev iteria.Revision
	var applied int64
	if err := s.Scan(&rev.ID, &rev.DocumentURI, &rev.Before, &rev.After, &applied); err != nil {
		return iteria.Revision{}, err
	}
	rev.AppliedAt = time.Unix(0, applied).UTC()
	return rev, nil
}
