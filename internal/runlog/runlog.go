// Package runlog persists completed filter runs so sessions can review
// past work.
package runlog

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rose-bag/rose/internal/catalog"
	"github.com/rose-bag/rose/internal/rostime"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Run is one recorded filter job.
type Run struct {
	RunID      string
	InputPath  string
	OutputPath string
	Topics     []string
	Window     rostime.Range
	Status     catalog.Status
	Error      string
	Elapsed    time.Duration
	SizeBefore int64
	SizeAfter  int64
	CreatedAt  float64
}

// Record inserts a run. Assigns a RunID if empty and returns it.
func (s *Store) Record(run Run) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = float64(time.Now().UnixNano()) / 1e9
	}
	topicsJSON, err := json.Marshal(run.Topics)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, input_path, output_path, topics_json,
			start_sec, start_nsec, end_sec, end_nsec,
			status, error, elapsed_ms, size_before, size_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.InputPath, run.OutputPath, string(topicsJSON),
		run.Window.Start.Sec, run.Window.Start.Nsec, run.Window.End.Sec, run.Window.End.Nsec,
		string(run.Status), run.Error, run.Elapsed.Milliseconds(),
		run.SizeBefore, run.SizeAfter, run.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	return run.RunID, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT run_id, input_path, output_path, topics_json,
			start_sec, start_nsec, end_sec, end_nsec,
			status, COALESCE(error, ''), elapsed_ms, size_before, size_after, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var topicsJSON, status string
		var elapsedMs int64
		if err := rows.Scan(
			&run.RunID, &run.InputPath, &run.OutputPath, &topicsJSON,
			&run.Window.Start.Sec, &run.Window.Start.Nsec, &run.Window.End.Sec, &run.Window.End.Nsec,
			&status, &run.Error, &elapsedMs, &run.SizeBefore, &run.SizeAfter, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(topicsJSON), &run.Topics); err != nil {
			run.Topics = nil
		}
		run.Status = catalog.Status(status)
		run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListByInput returns recorded runs for one input bag, newest first.
func (s *Store) ListByInput(inputPath string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT run_id, input_path, output_path, topics_json,
			start_sec, start_nsec, end_sec, end_nsec,
			status, COALESCE(error, ''), elapsed_ms, size_before, size_after, created_at
		FROM runs WHERE input_path = ? ORDER BY created_at DESC LIMIT ?`, inputPath, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var topicsJSON, status string
		var elapsedMs int64
		if err := rows.Scan(
			&run.RunID, &run.InputPath, &run.OutputPath, &topicsJSON,
			&run.Window.Start.Sec, &run.Window.Start.Nsec, &run.Window.End.Sec, &run.Window.End.Nsec,
			&status, &run.Error, &elapsedMs, &run.SizeBefore, &run.SizeAfter, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(topicsJSON), &run.Topics); err != nil {
			run.Topics = nil
		}
		run.Status = catalog.Status(status)
		run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
