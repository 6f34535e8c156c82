// Package store provides storage backends for ChatBotCore conversation state.
//
// It includes an in-memory store for tests plus SQLite and PostgreSQL backed
// implementations behind a common interface. The whole UserState record is
// serialized on every mutation; there is no incremental log.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
)

// Store is the durable mapping from user identifier to conversation state.
// GetUserState returns (nil, nil) when no state exists for the user; callers
// build a default state in that case.
type Store interface {
	GetUserState(userID string) (*models.UserState, error)
	SaveUserState(state models.UserState) error
	DeleteUserState(userID string) error
	// PurgeIdleStates deletes states not updated since the cutoff and
	// returns how many were removed. Abandoned conversations restart from
	// the greeting on the user's next message.
	PurgeIdleStates(olderThan time.Time) (int, error)
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (assumed to be a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a simple in-memory store for user states, used in tests
// and when no database DSN is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]models.UserState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]models.UserState)}
}

func (s *InMemoryStore) GetUserState(userID string) (*models.UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	// Copy co-signer slice so callers cannot mutate stored state.
	state.CoSigners = append([]models.CoSigner(nil), state.CoSigners...)
	return &state, nil
}

func (s *InMemoryStore) SaveUserState(state models.UserState) error {
	if state.UserID == "" {
		return models.ErrEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state.UpdatedAt = time.Now()
	if existing, ok := s.states[state.UserID]; ok {
		state.CreatedAt = existing.CreatedAt
	} else if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}
	s.states[state.UserID] = state
	return nil
}

func (s *InMemoryStore) DeleteUserState(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}

func (s *InMemoryStore) PurgeIdleStates(olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for userID, state := range s.states {
		if state.UpdatedAt.Before(olderThan) {
			delete(s.states, userID)
			purged++
		}
	}
	return purged, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
