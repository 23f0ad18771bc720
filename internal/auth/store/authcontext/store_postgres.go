package authcontext

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStorage persists auth context entries in the auth_context_entries table.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) Get(ctx context.Context, sessionID string, key Key) (string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM auth_context_entries WHERE session_id = $1 AND key = $2`,
		sessionID, string(key),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select context entry: %w", err)
	}
	return raw, true, nil
}

func (s *PostgresStorage) Set(ctx context.Context, sessionID string, key Key, raw string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_context_entries (session_id, key, value, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, sessionID, string(key), raw, expiresAt)
	if err != nil {
		return fmt.Errorf("upsert context entry: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Remove(ctx context.Context, sessionID string, key Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM auth_context_entries WHERE session_id = $1 AND key = $2`,
		sessionID, string(key),
	)
	if err != nil {
		return fmt.Errorf("delete context entry: %w", err)
	}
	return nil
}

func (s *PostgresStorage) RemoveIf(ctx context.Context, sessionID string, key Key, raw string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM auth_context_entries WHERE session_id = $1 AND key = $2 AND value = $3`,
		sessionID, string(key), raw,
	)
	if err != nil {
		return fmt.Errorf("delete context entry: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_context_entries WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("clear context entries: %w", err)
	}
	return nil
}

// Take deletes the row and returns its value in one statement.
func (s *PostgresStorage) Take(ctx context.Context, sessionID string, key Key) (string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM auth_context_entries WHERE session_id = $1 AND key = $2 RETURNING value`,
		sessionID, string(key),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("take context entry: %w", err)
	}
	return raw, true, nil
}

// DeleteExpired removes all entries that have expired as of now.
func (s *PostgresStorage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_context_entries WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired context entries: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired context entries rows: %w", err)
	}
	return int(rows), nil
}
