package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/langfix/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresTrailStore implements store.TrailStore using PostgreSQL
type PostgresTrailStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "trails"
}

// NewPostgresTrailStore creates a new Postgres trail store
func NewPostgresTrailStore(ctx context.Context, opts PostgresOptions) (*PostgresTrailStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresTrailStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresTrailStoreWithPool creates a new Postgres trail store with an existing pool
func NewPostgresTrailStoreWithPool(pool DBPool, tableName string) *PostgresTrailStore {
	if tableName == "" {
		tableName = "trails"
	}
	return &PostgresTrailStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresTrailStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			instruction TEXT NOT NULL,
			outcome TEXT NOT NULL,
			attempts JSONB NOT NULL,
			record JSONB,
			error TEXT,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresTrailStore) Close() {
	s.pool.Close()
}

// Save stores a trail
func (s *PostgresTrailStore) Save(ctx context.Context, trail *store.Trail) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			instruction = EXCLUDED.instruction,
			outcome = EXCLUDED.outcome,
			attempts = EXCLUDED.attempts,
			record = EXCLUDED.record,
			error = EXCLUDED.error,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		trail.ID,
		trail.SessionID,
		trail.Instruction,
		string(trail.Outcome),
		attemptsJSON,
		recordJSON,
		trail.Error,
		metadataJSON,
		trail.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save trail: %w", err)
	}
	return nil
}

func scanTrail(row pgx.Row) (*store.Trail, error) {
	var t store.Trail
	var outcome string
	var errText *string
	var attemptsJSON, recordJSON, metadataJSON []byte

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
	if errText != nil {
		t.Error = *errText
	}
	if err := json.Unmarshal(attemptsJSON, &t.Attempts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempts: %w", err)
	}
	if len(recordJSON) > 0 {
		if err := json.Unmarshal(recordJSON, &t.Record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &t, nil
}

// Load retrieves a trail by ID
func (s *PostgresTrailStore) Load(ctx context.Context, trailID string) (*store.Trail, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, instruction, outcome, attempts, record, error, metadata, timestamp
		FROM %s
		WHERE id = $1
	`, s.tableName)

	t, err := scanTrail(s.pool.QueryRow(ctx, query, trailID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
		}
		return nil, fmt.Errorf("failed to load trail: %w", err)
	}
	return t, nil
}

// List returns all trails of a session, oldest first
func (s *PostgresTrailStore) List(ctx context.Context, sessionID string) ([]*store.Trail, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, instruction, outcome, attempts, record, error, metadata, timestamp
		FROM %s
		WHERE session_id = $1
		ORDER BY timestamp ASC, id ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, sessionID)
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
func (s *PostgresTrailStore) Delete(ctx context.Context, trailID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	tag, err := s.pool.Exec(ctx, query, trailID)
	if err != nil {
		return fmt.Errorf("failed to delete trail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
	}
	return nil
}

// Clear removes all trails of a session
func (s *PostgresTrailStore) Clear(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to clear trails: %w", err)
	}
	return nil
}
