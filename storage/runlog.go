package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"econdata-collector/models"
)

// RunLog keeps the local history of collection runs in SQLite, so partial
// failures remain visible after the process exits.
type RunLog struct {
	db *sql.DB
}

// RunEntry is one recorded collection run.
type RunEntry struct {
	RunID      string
	DataSource string
	Attempted  int
	Succeeded  int
	Failed     int
	Records    int
	Elapsed    time.Duration
	Error      string
	CreatedAt  time.Time
}

// OpenRunLog opens (creating if needed) the run-history database.
func OpenRunLog(path string) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("runlog: create dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			data_source TEXT NOT NULL,
			attempted   INTEGER NOT NULL,
			succeeded   INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			records     INTEGER NOT NULL,
			elapsed_ms  INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: migrate: %w", err)
	}

	return &RunLog{db: db}, nil
}

// Record stores a finished run. persistErr, when non-nil, is the sink
// failure that prevented the records from reaching the warehouse.
func (r *RunLog) Record(s *models.Summary, persistErr error) error {
	errText := ""
	if persistErr != nil {
		errText = persistErr.Error()
	} else if s.Succeeded == 0 && s.Failed() > 0 {
		reasons := make([]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			reasons = append(reasons, f.Target+": "+f.Reason)
		}
		errText = strings.Join(reasons, "; ")
	}

	_, err := r.db.Exec(
		`INSERT INTO runs (run_id, data_source, attempted, succeeded, failed, records, elapsed_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.DataSource, s.Attempted, s.Succeeded, s.Failed(), len(s.Records),
		s.Elapsed.Milliseconds(), errText, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("runlog: insert: %w", err)
	}
	return nil
}

// History returns the most recent runs, newest first.
func (r *RunLog) History(limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(
		`SELECT run_id, data_source, attempted, succeeded, failed, records, elapsed_ms, error, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: query: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var elapsedMs int64
		if err := rows.Scan(&e.RunID, &e.DataSource, &e.Attempted, &e.Succeeded,
			&e.Failed, &e.Records, &elapsedMs, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("runlog: scan: %w", err)
		}
		e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RunLog) Close() error {
	return r.db.Close()
}
