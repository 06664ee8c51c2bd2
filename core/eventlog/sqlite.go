package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/fieldsim/core/model"
)

// SQLiteStore persists events to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS simulation_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT,
        ts INTEGER,
        technician TEXT,
        state TEXT,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS simulation_events_run ON simulation_events (run_id, ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the event to the database.
func (s *SQLiteStore) Append(ctx context.Context, ev model.SimulationEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulation_events (run_id, ts, technician, state, record) VALUES (?, ?, ?, ?, ?)`,
		ev.RunID, ev.Time.UnixNano(), ev.Technician, string(ev.State), string(b))
	return err
}

// Query returns events matching q in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]model.SimulationEvent, error) {
	var args []any
	query := `SELECT record FROM simulation_events WHERE 1=1`
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if !q.Until.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.Until.UnixNano())
	}
	if q.Technician != "" {
		query += ` AND technician = ?`
		args = append(args, model.NormalizeID(q.Technician))
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.SimulationEvent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var ev model.SimulationEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
