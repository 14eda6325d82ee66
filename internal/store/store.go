package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	id         SERIAL PRIMARY KEY,
	slack_id   TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS invocations (
	id            SERIAL PRIMARY KEY,
	channel_id    TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	phrase        TEXT NOT NULL,
	window_start  TIMESTAMPTZ NOT NULL,
	window_end    TIMESTAMPTZ NOT NULL,
	fallback      BOOLEAN NOT NULL,
	message_count INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store keeps the channel ID cache and an audit trail of summary requests.
// Message contents are never stored.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Invocation is one audited summary request.
type Invocation struct {
	ChannelID    string
	UserID       string
	Phrase       string
	WindowStart  time.Time
	WindowEnd    time.Time
	Fallback     bool
	MessageCount int
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return New(db, logger), nil
}

func New(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("store")}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

// LookupChannel returns the cached Slack ID for a channel name.
func (s *Store) LookupChannel(ctx context.Context, name string) (string, bool, error) {
	var slackID string
	err := s.db.QueryRowContext(ctx, `SELECT slack_id FROM channels WHERE name = $1`, name).Scan(&slackID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error querying channel: %w", err)
	}
	return slackID, true, nil
}

// UpsertChannel inserts or renames a channel and returns its row ID.
func (s *Store) UpsertChannel(ctx context.Context, slackID, name string) (int64, error) {
	var id int64
	query := `
		INSERT INTO channels (slack_id, name)
		VALUES ($1, $2)
		ON CONFLICT (slack_id)
		DO UPDATE SET name = EXCLUDED.name, updated_at = CURRENT_TIMESTAMP
		RETURNING id`

	s.logger.Debug("Upserting channel",
		zap.String("slack_id", slackID),
		zap.String("name", name))

	if err := s.db.QueryRowContext(ctx, query, slackID, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("error upserting channel '%s' (ID: %s): %w", name, slackID, err)
	}
	return id, nil
}

// RecordInvocation appends one audit row.
func (s *Store) RecordInvocation(ctx context.Context, inv Invocation) error {
	query := `
		INSERT INTO invocations (channel_id, user_id, phrase, window_start, window_end, fallback, message_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		inv.ChannelID, inv.UserID, inv.Phrase, inv.WindowStart, inv.WindowEnd, inv.Fallback, inv.MessageCount)
	if err != nil {
		return fmt.Errorf("error recording invocation: %w", err)
	}
	return nil
}
