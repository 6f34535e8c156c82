package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// GetUserState retrieves the conversation state for a user.
func (s *PostgresStore) GetUserState(userID string) (*models.UserState, error) {
	query := `SELECT state FROM user_states WHERE user_id = $1`

	var stateJSON []byte
	err := s.db.QueryRow(query, userID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetUserState not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUserState failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query user state for %s: %w", userID, err)
	}

	var state models.UserState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		slog.Error("PostgresStore GetUserState JSON unmarshal failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to decode user state for %s: %w", userID, err)
	}

	slog.Debug("PostgresStore GetUserState found", "userID", userID, "flow", state.Flow, "step", state.Step)
	return &state, nil
}

// SaveUserState stores or updates the conversation state for a user.
func (s *PostgresStore) SaveUserState(state models.UserState) error {
	if state.UserID == "" {
		return models.ErrEmptyUserID
	}

	now := time.Now()
	state.UpdatedAt = now
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		slog.Error("PostgresStore SaveUserState JSON marshal failed", "error", err, "userID", state.UserID)
		return err
	}

	query := `
		INSERT INTO user_states (user_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`

	_, err = s.db.Exec(query, state.UserID, stateJSON, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveUserState failed", "error", err, "userID", state.UserID)
		return fmt.Errorf("failed to save user state for %s: %w", state.UserID, err)
	}
	slog.Debug("PostgresStore SaveUserState succeeded", "userID", state.UserID, "flow", state.Flow, "step", state.Step)
	return nil
}

// DeleteUserState removes the conversation state for a user.
func (s *PostgresStore) DeleteUserState(userID string) error {
	_, err := s.db.Exec(`DELETE FROM user_states WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteUserState failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete user state for %s: %w", userID, err)
	}
	slog.Debug("PostgresStore DeleteUserState succeeded", "userID", userID)
	return nil
}

// PurgeIdleStates removes states whose last update predates the cutoff.
func (s *PostgresStore) PurgeIdleStates(olderThan time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM user_states WHERE updated_at < $1`, olderThan)
	if err != nil {
		slog.Error("PostgresStore PurgeIdleStates failed", "error", err)
		return 0, fmt.Errorf("failed to purge idle user states: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged user states: %w", err)
	}
	slog.Debug("PostgresStore PurgeIdleStates succeeded", "purged", affected, "cutoff", olderThan)
	return int(affected), nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
