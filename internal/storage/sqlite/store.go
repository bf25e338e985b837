// Package sqlite persists consensus runs and their score rows in a local
// sqlite database so reports can be browsed after the fact.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/annolab-data/consensus.report/internal/consensus"
)

// Run is one persisted consensus or benchmark invocation.
type Run struct {
	RunID          string `json:"run_id"`
	Kind           string `json:"kind"` // "consensus" or "benchmark"
	ExportRoot     string `json:"export_root"`
	AnnotationType string `json:"annotation_type"`
	Folders        string `json:"folders"` // comma separated, as requested
	RowCount       int    `json:"row_count"`
	CreatedAt      int64  `json:"created_at"`
}

// Store provides persistence for consensus runs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS consensus_runs (
			run_id            TEXT PRIMARY KEY,
			kind              TEXT NOT NULL,
			export_root       TEXT NOT NULL,
			annotation_type   TEXT NOT NULL,
			folders           TEXT NOT NULL,
			row_count         INTEGER NOT NULL,
			created_at        INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS consensus_scores (
			run_id            TEXT NOT NULL,
			creator_email     TEXT,
			image_name        TEXT NOT NULL,
			instance_id       INTEGER NOT NULL,
			area              REAL NOT NULL,
			class_name        TEXT,
			attributes_json   TEXT,
			folder_name       TEXT,
			score             REAL NOT NULL,
			FOREIGN KEY(run_id) REFERENCES consensus_runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_consensus_scores_run
			ON consensus_scores(run_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertRun persists a run and its score rows in one transaction. If
// RunID is empty, a UUID is generated. Returns the run id.
func (s *Store) InsertRun(run *Run, rows []consensus.ScoreRow) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	run.RowCount = len(rows)

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO consensus_runs (
			run_id, kind, export_root, annotation_type, folders, row_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Kind, run.ExportRoot, run.AnnotationType,
		run.Folders, run.RowCount, run.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO consensus_scores (
			run_id, creator_email, image_name, instance_id, area,
			class_name, attributes_json, folder_name, score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare score insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		var attrs interface{}
		if row.Attributes != nil {
			b, err := json.Marshal(row.Attributes)
			if err != nil {
				return "", fmt.Errorf("failed to marshal attributes on row %d: %w", i, err)
			}
			attrs = string(b)
		}
		if _, err := stmt.Exec(
			run.RunID, row.CreatorEmail, row.ImageName, row.InstanceID,
			row.Area, row.ClassName, attrs, row.FolderName, row.Score,
		); err != nil {
			return "", fmt.Errorf("failed to insert score row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.RunID, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, kind, export_root, annotation_type, folders, row_count, created_at
		FROM consensus_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Kind, &r.ExportRoot, &r.AnnotationType,
			&r.Folders, &r.RowCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id, or sql.ErrNoRows.
func (s *Store) GetRun(runID string) (*Run, error) {
	var r Run
	err := s.db.QueryRow(`
		SELECT run_id, kind, export_root, annotation_type, folders, row_count, created_at
		FROM consensus_runs WHERE run_id = ?`, runID).
		Scan(&r.RunID, &r.Kind, &r.ExportRoot, &r.AnnotationType,
			&r.Folders, &r.RowCount, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Scores returns the score rows of a run in insertion order.
func (s *Store) Scores(runID string) ([]consensus.ScoreRow, error) {
	rows, err := s.db.Query(`
		SELECT creator_email, image_name, instance_id, area,
		       class_name, attributes_json, folder_name, score
		FROM consensus_scores WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var out []consensus.ScoreRow
	for rows.Next() {
		var r consensus.ScoreRow
		var creator, class, folder sql.NullString
		var attrs sql.NullString
		if err := rows.Scan(&creator, &r.ImageName, &r.InstanceID, &r.Area,
			&class, &attrs, &folder, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		r.CreatorEmail = creator.String
		r.ClassName = class.String
		r.FolderName = folder.String
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &r.Attributes); err != nil {
				return nil, fmt.Errorf("failed to decode attributes: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FoldersList splits the run's folder field back into names.
func (r *Run) FoldersList() []string {
	if r.Folders == "" {
		return nil
	}
	return strings.Split(r.Folders, ",")
}
