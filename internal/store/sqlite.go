package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetUserState retrieves the conversation state for a user.
func (s *SQLiteStore) GetUserState(userID string) (*models.UserState, error) {
	query := `SELECT state FROM user_states WHERE user_id = ?`

	var stateJSON string
	err := s.db.QueryRow(query, userID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetUserState not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUserState failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query user state for %s: %w", userID, err)
	}

	var state models.UserState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		slog.Error("SQLiteStore GetUserState JSON unmarshal failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to decode user state for %s: %w", userID, err)
	}

	slog.Debug("SQLiteStore GetUserState found", "userID", userID, "flow", state.Flow, "step", state.Step)
	return &state, nil
}

// SaveUserState stores or updates the conversation state for a user. The
// whole record is serialized as JSON on every mutation.
func (s *SQLiteStore) SaveUserState(state models.UserState) error {
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
		slog.Error("SQLiteStore SaveUserState JSON marshal failed", "error", err, "userID", state.UserID)
		return err
	}

	query := `
		INSERT INTO user_states (user_id, state, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`

	_, err = s.db.Exec(query, state.UserID, string(stateJSON), state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveUserState failed", "error", err, "userID", state.UserID)
		return fmt.Errorf("failed to save user state for %s: %w", state.UserID, err)
	}
	slog.Debug("SQLiteStore SaveUserState succeeded", "userID", state.UserID, "flow", state.Flow, "step", state.Step)
	return nil
}

// DeleteUserState removes the conversation state for a user.
func (s *SQLiteStore) DeleteUserState(userID string) error {
	_, err := s.db.Exec(`DELETE FROM user_states WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteUserState failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete user state for %s: %w", userID, err)
	}
	slog.Debug("SQLiteStore DeleteUserState succeeded", "userID", userID)
	return nil
}

// PurgeIdleStates removes states whose last update predates the cutoff.
func (s *SQLiteStore) PurgeIdleStates(olderThan time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM user_states WHERE updated_at < ?`, olderThan)
	if err != nil {
		slog.Error("SQLiteStore PurgeIdleStates failed", "error", err)
		return 0, fmt.Errorf("failed to purge idle user states: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged user states: %w", err)
	}
	slog.Debug("SQLiteStore PurgeIdleStates succeeded", "purged", affected, "cutoff", olderThan)
	return int(affected), nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
