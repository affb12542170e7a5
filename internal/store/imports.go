package store

import (
	"database/sql"
	"time"
)

// ImportRun audits one import of a points or readings source.
type ImportRun struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     sql.NullTime
	Kind           string // "points", "readings"
	Source         string
	RecordsParsed  sql.NullInt64
	RecordsStored  sql.NullInt64
	RecordsFlagged sql.NullInt64
	Success        bool
	ErrorMessage   sql.NullString
}

func (s *Store) StartImportRun(kind, source string) (*ImportRun, error) {
	run := &ImportRun{
		StartedAt: time.Now().UTC(),
		Kind:      kind,
		Source:    source,
	}

	result, err := s.db.Exec(`
		INSERT INTO import_runs (started_at, kind, source, success) VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.Kind, run.Source)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) CompleteImportRun(run *ImportRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE import_runs SET
			finished_at = ?,
			records_parsed = ?,
			records_stored = ?,
			records_flagged = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.RecordsParsed, run.RecordsStored, run.RecordsFlagged,
		run.Success, run.ErrorMessage, run.ID)
	return err
}

// RecentImportRuns returns the latest runs, newest first.
func (s *Store) RecentImportRuns(limit int) ([]ImportRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, kind, source, records_parsed, records_stored,
			records_flagged, success, error_message
		FROM import_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var r ImportRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Kind, &r.Source,
			&r.RecordsParsed, &r.RecordsStored, &r.RecordsFlagged, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
