package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/langfix/store"
)

// SqliteTrailStore implements store.TrailStore using SQLite
type SqliteTrailStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "trails"
}

// NewSqliteTrailStore opens the database and creates the trail table if needed
func NewSqliteTrailStore(opts SqliteOptions) (*SqliteTrailStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "trails"
	}

	s := &SqliteTrailStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteTrailStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			instruction TEXT NOT NULL,
			outcome TEXT NOT NULL,
			attempts TEXT NOT NULL,
			record TEXT,
			error TEXT,
			metadata TEXT,
			timestamp DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteTrailStore) Close() error {
	return s.db.Close()
}

// Save stores a trail
func (s *SqliteTrailStore) Save(ctx context.Context, trail *store.Trail) error {
	if trail == nil || trail.ID == "" {
		return fmt.Errorf("trail must have an ID")
	}

	attemptsJSON, err := json.Marshal(trail.Attempts)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}
	recordJSON, err := json.Marshal(trail.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	metadataJSON, err := json.Marshal(trail.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, instruction, outcome, attempts, record, error, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			instruction = excluded.instruction,
			outcome = excluded.outcome,
			attempts = excluded.attempts,
			record = excluded.record,
			error = excluded.error,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		trail.ID,
		trail.SessionID,
		trail.Instruction,
		string(trail.Outcome),
		string(attemptsJSON),
		string(recordJSON),
		trail.Error,
		string(metadataJSON),
		trail.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save trail: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrail(row rowScanner) (*store.Trail, error) {
	var t store.Trail
	var outcome, attemptsJSON string
	var recordJSON, errText, metadataJSON sql.NullString

	if err := row.Scan(
		&t.ID,
		&t.SessionID,
		&t.Instruction,
		&outcome,
		&attemptsJSON,
		&recordJSON,
		&errText,
		&metadataJSON,
		&t.Timestamp,
	); err != nil {
		return nil, err
	}

	t.Outcome = store.Outcome(outcome)
	t.Error = errText.String
	if err := json.Unmarshal([]byte(attemptsJSON), &t.Attempts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempts: %w", err)
	}
	if recordJSON.Valid && recordJSON.String != "" {
		if err := json.Unmarshal([]byte(recordJSON.String), &t.Record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &t.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &t, nil
}

// Load retrieves a trail by ID
func (s *SqliteTrailStore) Load(ctx context.Context, trailID string) (*store.Trail, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, instruction, outcome, attempts, record, error, metadata, timestamp
		FROM %s
		WHERE id = ?
	`, s.tableName)

	t, err := scanTrail(s.db.QueryRowContext(ctx, query, trailID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
		}
		return nil, fmt.Errorf("failed to load trail: %w", err)
	}
	return t, nil
}

// List returns all trails of a session, oldest first
func (s *SqliteTrailStore) List(ctx context.Context, sessionID string) ([]*store.Trail, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, instruction, outcome, attempts, record, error, metadata, timestamp
		FROM %s
		WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trails: %w", err)
	}
	defer rows.Close()

	trails := make([]*store.Trail, 0)
	for rows.Next() {
		t, err := scanTrail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trail row: %w", err)
		}
		trails = append(trails, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trail rows: %w", err)
	}
	return trails, nil
}

// Delete removes a trail
func (s *SqliteTrailStore) Delete(ctx context.Context, trailID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	res, err := s.db.ExecContext(ctx, query, trailID)
	if err != nil {
		return fmt.Errorf("failed to delete trail: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
	}
	return nil
}

// Clear removes all trails of a session
func (s *SqliteTrailStore) Clear(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to clear trails: %w", err)
	}
	return nil
}
