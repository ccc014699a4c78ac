// Package artifacts persists the ledger of generated subtitle files in
// SQLite. Job state is transient, but the files on disk outlive it; the
// ledger is what maps a job id and format back to a file after the job
// table has been swept.
package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"captiond/internal/services"
)

const schema = `
CREATE TABLE IF NOT EXISTS caption_files (
	job_id          TEXT NOT NULL,
	format          TEXT NOT NULL,
	path            TEXT NOT NULL,
	bytes           INTEGER NOT NULL,
	segment_count   INTEGER NOT NULL,
	source_language TEXT NOT NULL DEFAULT '',
	target_language TEXT NOT NULL DEFAULT '',
	original_name   TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL,
	PRIMARY KEY (job_id, format)
);
CREATE INDEX IF NOT EXISTS idx_caption_files_created ON caption_files(created_at);
`

// Artifact is one generated subtitle file.
type Artifact struct {
	JobID          string    `json:"jobId"`
	Format         string    `json:"format"`
	Path           string    `json:"path"`
	Bytes          int64     `json:"bytes"`
	SegmentCount   int       `json:"segmentCount"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	OriginalName   string    `json:"originalName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Store manages artifact persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the artifact database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: ensure database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("artifacts: open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("artifacts: apply pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("artifacts: apply schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts or replaces the ledger entry for one generated file.
func (s *Store) Record(ctx context.Context, artifact Artifact) error {
	if artifact.JobID == "" || artifact.Format == "" {
		return services.Wrap(services.ErrValidation, "artifacts", "record", "job id and format required", nil)
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO caption_files
		(job_id, format, path, bytes, segment_count, source_language, target_language, original_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.JobID, artifact.Format, artifact.Path, artifact.Bytes, artifact.SegmentCount,
		artifact.SourceLanguage, artifact.TargetLanguage, artifact.OriginalName, artifact.CreatedAt)
	if err != nil {
		return fmt.Errorf("artifacts: record %s/%s: %w", artifact.JobID, artifact.Format, err)
	}
	return nil
}

// Lookup fetches the ledger entry for a job and format.
func (s *Store) Lookup(ctx context.Context, jobID, format string) (Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT job_id, format, path, bytes, segment_count, source_language, target_language, original_name, created_at
		FROM caption_files WHERE job_id = ? AND format = ?`, jobID, format)

	var artifact Artifact
	err := row.Scan(&artifact.JobID, &artifact.Format, &artifact.Path, &artifact.Bytes,
		&artifact.SegmentCount, &artifact.SourceLanguage, &artifact.TargetLanguage,
		&artifact.OriginalName, &artifact.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, services.Wrap(services.ErrNotFound, "artifacts", "lookup",
			fmt.Sprintf("no %s artifact for job %s", format, jobID), nil)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("artifacts: lookup %s/%s: %w", jobID, format, err)
	}
	return artifact, nil
}

// ListRecent returns the newest ledger entries, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Artifact, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, format, path, bytes, segment_count, source_language, target_language, original_name, created_at
		FROM caption_files ORDER BY created_at DESC, job_id, format LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("artifacts: list recent: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var artifact Artifact
		if err := rows.Scan(&artifact.JobID, &artifact.Format, &artifact.Path, &artifact.Bytes,
			&artifact.SegmentCount, &artifact.SourceLanguage, &artifact.TargetLanguage,
			&artifact.OriginalName, &artifact.CreatedAt); err != nil {
			return nil, fmt.Errorf("artifacts: scan row: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// DeleteOlderThan removes ledger entries older than cutoff and returns the
// paths they pointed at so the caller can unlink the files.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM caption_files WHERE created_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("artifacts: select stale: %w", err)
	}
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("artifacts: scan path: %w", err)
		}
		paths = append(paths, path)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM caption_files WHERE created_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("artifacts: delete stale: %w", err)
	}
	return paths, nil
}
