// Package buildcache records which pages were rendered from which source
// content so unchanged pages can be skipped on the next build.
package buildcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/blaze/internal/db"
)

// Page is the cached record of one rendered page.
type Page struct {
	SourcePath string
	OutputPath string
	Hash       string
	BuildID    string
}

// Build summarizes one build run.
type Build struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Rendered   int
	Skipped    int
	Pruned     int
}

// Store provides access to the build cache tables.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Begin records the start of a build and returns its id.
func (s *Store) Begin(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO builds (id) VALUES (?)`, id); err != nil {
		return "", fmt.Errorf("inserting build: %w", err)
	}
	return id, nil
}

// Finish records the outcome of a build.
func (s *Store) Finish(ctx context.Context, id string, rendered, skipped, pruned int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE builds SET finished_at = datetime('now'), rendered = ?, skipped = ?, pruned = ?
		WHERE id = ?`, rendered, skipped, pruned, id)
	if err != nil {
		return fmt.Errorf("finishing build %s: %w", id, err)
	}
	return nil
}

// LastBuild returns the most recently started build, or nil if none exist.
func (s *Store) LastBuild(ctx context.Context) (*Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, rendered, skipped, pruned
		FROM builds ORDER BY started_at DESC, rowid DESC LIMIT 1`)

	var b Build
	var started string
	var finished sql.NullString
	err := row.Scan(&b.ID, &started, &finished, &b.Rendered, &b.Skipped, &b.Pruned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning build: %w", err)
	}

	b.StartedAt = parseTime(started)
	if finished.Valid {
		t := parseTime(finished.String)
		b.FinishedAt = &t
	}
	return &b, nil
}

// parseTime accepts both SQLite's datetime() text and the RFC 3339 form
// the driver produces for DATETIME columns.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Lookup returns the cached record for a source path.
func (s *Store) Lookup(ctx context.Context, sourcePath string) (*Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_path, output_path, hash, build_id FROM pages WHERE source_path = ?`, sourcePath)

	var p Page
	err := row.Scan(&p.SourcePath, &p.OutputPath, &p.Hash, &p.BuildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", sourcePath, err)
	}
	return &p, nil
}

// Put inserts or replaces the record for p.SourcePath.
func (s *Store) Put(ctx context.Context, p Page) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (source_path, output_path, hash, build_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			output_path = excluded.output_path,
			hash = excluded.hash,
			build_id = excluded.build_id,
			updated_at = datetime('now')`,
		p.SourcePath, p.OutputPath, p.Hash, p.BuildID)
	if err != nil {
		return fmt.Errorf("storing %s: %w", p.SourcePath, err)
	}
	return nil
}

// Prune deletes records whose source path is not in present and returns
// them so their outputs can be removed.
func (s *Store) Prune(ctx context.Context, present map[string]bool) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_path, output_path, hash, build_id FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	var stale []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.SourcePath, &p.OutputPath, &p.Hash, &p.BuildID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		if !present[p.SourcePath] {
			stale = append(stale, p)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, p := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE source_path = ?`, p.SourcePath); err != nil {
			return nil, fmt.Errorf("deleting %s: %w", p.SourcePath, err)
		}
	}
	return stale, nil
}

// Reset drops every page record, forcing a full rebuild.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("resetting page cache: %w", err)
	}
	return nil
}
