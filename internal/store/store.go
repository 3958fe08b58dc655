// Package store persists the run registry: one row per analysis run
// with its parameters, status and timing, plus a summary metadata blob
// recorded at completion. Backed by SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite-backed run registry.
type Store struct {
	DB *sql.DB
}

// New opens (or creates) the database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
            id TEXT PRIMARY KEY,
            analysis TEXT NOT NULL,
            status TEXT NOT NULL,
            input_path TEXT,
            save_path TEXT,
            params_json TEXT,
            frames INTEGER,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            started_at TIMESTAMP,
            completed_at TIMESTAMP,
            error_message TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS run_summaries (
            run_id TEXT,
            meta_json TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON analysis_runs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// RunRecord captures one persisted analysis run.
type RunRecord struct {
	ID          string
	Analysis    string
	Status      string
	InputPath   string
	SavePath    string
	ParamsJSON  string
	Frames      int
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// RecordRunQueued inserts a pending run.
func (s *Store) RecordRunQueued(rec RunRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(
		`INSERT OR REPLACE INTO analysis_runs (id, analysis, status, input_path, save_path, params_json, frames)
         VALUES (?, ?, ?, ?, ?, ?, ?);`,
		rec.ID, rec.Analysis, rec.Status, rec.InputPath, rec.SavePath, rec.ParamsJSON, rec.Frames)
	return err
}

// RecordRunStart marks a run as running.
func (s *Store) RecordRunStart(id string) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(
		`UPDATE analysis_runs SET status='running', started_at=CURRENT_TIMESTAMP WHERE id=?;`, id)
	return err
}

// RecordRunResult finalizes a run with its status and summary
// metadata.
func (s *Store) RecordRunResult(id, status string, meta map[string]any, errMsg string) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(
		`UPDATE analysis_runs SET status=?, completed_at=CURRENT_TIMESTAMP, error_message=? WHERE id=?;`,
		status, errMsg, id)
	if err != nil {
		return err
	}
	metaJSON, _ := json.Marshal(meta)
	_, err = s.DB.Exec(`INSERT INTO run_summaries (run_id, meta_json) VALUES (?, ?);`, id, string(metaJSON))
	return err
}

// RecentRuns returns the latest runs up to limit.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(
		`SELECT id, analysis, status, input_path, save_path, params_json, frames,
                created_at, started_at, completed_at, error_message
         FROM analysis_runs ORDER BY created_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var created time.Time
		var started, completed sql.NullTime
		var errorMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Analysis, &rec.Status, &rec.InputPath, &rec.SavePath,
			&rec.ParamsJSON, &rec.Frames, &created, &started, &completed, &errorMsg); err != nil {
			return nil, err
		}
		rec.CreatedAt = created
		if started.Valid {
			rec.StartedAt = &started.Time
		}
		if completed.Valid {
			rec.CompletedAt = &completed.Time
		}
		if errorMsg.Valid {
			rec.Error = errorMsg.String
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Run fetches a single run by id.
func (s *Store) Run(id string) (RunRecord, error) {
	if s == nil {
		return RunRecord{}, errors.New("store not initialized")
	}
	row := s.DB.QueryRow(
		`SELECT id, analysis, status, input_path, save_path, params_json, frames,
                created_at, started_at, completed_at, error_message
         FROM analysis_runs WHERE id=?;`, id)

	var rec RunRecord
	var created time.Time
	var started, completed sql.NullTime
	var errorMsg sql.NullString
	err := row.Scan(&rec.ID, &rec.Analysis, &rec.Status, &rec.InputPath, &rec.SavePath,
		&rec.ParamsJSON, &rec.Frames, &created, &started, &completed, &errorMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return RunRecord{}, err
	}
	rec.CreatedAt = created
	if started.Valid {
		rec.StartedAt = &started.Time
	}
	if completed.Valid {
		rec.CompletedAt = &completed.Time
	}
	if errorMsg.Valid {
		rec.Error = errorMsg.String
	}
	return rec, nil
}

// RunSummary fetches the last summary blob recorded for a run.
func (s *Store) RunSummary(id string) (map[string]any, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	var metaJSON string
	err := s.DB.QueryRow(
		`SELECT meta_json FROM run_summaries WHERE run_id=? ORDER BY created_at DESC LIMIT 1;`, id).
		Scan(&metaJSON)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return meta, nil
}
