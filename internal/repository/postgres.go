package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flagSchema = `
CREATE TABLE IF NOT EXISTS client_flags (
    client_id  TEXT        NOT NULL,
    key        TEXT        NOT NULL,
    value      TEXT        NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (client_id, key)
)`

// PostgresFlagStore persists flags in the client_flags table.
type PostgresFlagStore struct {
	db *pgxpool.Pool
}

// NewPostgresFlagStore constructs a PostgresFlagStore.
func NewPostgresFlagStore(db *pgxpool.Pool) *PostgresFlagStore {
	return &PostgresFlagStore{db: db}
}

// EnsureSchema creates the client_flags table. Safe to call repeatedly.
func (s *PostgresFlagStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, flagSchema); err != nil {
		return fmt.Errorf("create client_flags: %w", err)
	}
	return nil
}

// Get returns the flag value or ErrNotFound.
func (s *PostgresFlagStore) Get(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM client_flags WHERE client_id = $1 AND key = $2`,
		namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get flag: %w", err)
	}
	return value, nil
}

// Set upserts the flag value.
func (s *PostgresFlagStore) Set(ctx context.Context, namespace, key, value string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO client_flags (client_id, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (client_id, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		namespace, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	return nil
}
