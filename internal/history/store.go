// Package history persists analysis sessions and small app state in a local
// SQLite database. The cockpit talks to it only through the Recorder
// interface so tests can substitute an in-memory fake.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"carf/internal/logging"
	"carf/internal/types"
)

// Recorder is the narrow persistence interface injected into the cockpit.
type Recorder interface {
	Record(session types.AnalysisSession) error
	List(limit int) ([]types.AnalysisSession, error)
	Get(id string) (*types.AnalysisSession, error)
	Delete(id string) error
	MarkVisited() error
	Visited() (bool, error)
	Close() error
}

// ErrNotFound is returned by Get for an unknown session ID.
var ErrNotFound = errors.New("session not found")

const visitedKey = "carf-visited"

// Store is the SQLite-backed Recorder.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the database at path, creating directories and schema as
// needed.
func Open(path string) (*Store, error) {
	log := logging.Get(logging.CategoryHistory)
	log.Info("opening history store", zap.String("path", path))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("setting busy_timeout failed", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("setting journal_mode=WAL failed", zap.Error(err))
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_sessions (
		id            TEXT PRIMARY KEY,
		created_at    TEXT NOT NULL,
		scenario      TEXT NOT NULL DEFAULT '',
		query         TEXT NOT NULL,
		domain        TEXT NOT NULL DEFAULT 'disorder',
		confidence    REAL NOT NULL DEFAULT 0,
		duration_ms   INTEGER NOT NULL DEFAULT 0,
		response_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON analysis_sessions(created_at DESC);

	CREATE TABLE IF NOT EXISTS app_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Record inserts or replaces one analysis session.
func (s *Store) Record(session types.AnalysisSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	responseJSON, err := json.Marshal(session.Response)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	var domain types.Domain = types.DomainDisorder
	var confidence float64
	if session.Response != nil {
		domain = session.Response.Domain
		confidence = session.Response.DomainConfidence
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO analysis_sessions
			(id, created_at, scenario, query, domain, confidence, duration_ms, response_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Timestamp.UTC().Format(time.RFC3339Nano),
		session.Scenario,
		session.Query,
		string(domain),
		confidence,
		session.DurationMS,
		string(responseJSON),
	)
	if err != nil {
		return fmt.Errorf("recording session %s: %w", session.ID, err)
	}

	logging.Get(logging.CategoryHistory).Debug("session recorded",
		zap.String("id", session.ID),
		zap.String("domain", string(domain)))
	return nil
}

// List returns the most recent sessions, newest first.
func (s *Store) List(limit int) ([]types.AnalysisSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, scenario, query, duration_ms, response_json
		FROM analysis_sessions
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.AnalysisSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Get returns one session by ID, or ErrNotFound.
func (s *Store) Get(id string) (*types.AnalysisSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, created_at, scenario, query, duration_ms, response_json
		FROM analysis_sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes one session. Deleting an unknown ID is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM analysis_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// MarkVisited sets the onboarding gate flag.
func (s *Store) MarkVisited() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR REPLACE INTO app_state (key, value) VALUES (?, ?)`,
		visitedKey, "true")
	if err != nil {
		return fmt.Errorf("marking visited: %w", err)
	}
	return nil
}

// Visited reports whether the onboarding overlay has been dismissed before.
func (s *Store) Visited() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, visitedKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading visited flag: %w", err)
	}
	return value == "true", nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (types.AnalysisSession, error) {
	var (
		session      types.AnalysisSession
		createdAt    string
		responseJSON string
	)
	if err := row.Scan(&session.ID, &createdAt, &session.Scenario, &session.Query,
		&session.DurationMS, &responseJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session, err
		}
		return session, fmt.Errorf("scanning session: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		session.Timestamp = ts
	}
	if responseJSON != "" && responseJSON != "null" {
		var resp types.QueryResponse
		if err := json.Unmarshal([]byte(responseJSON), &resp); err != nil {
			return session, fmt.Errorf("unmarshaling stored response: %w", err)
		}
		session.Response = &resp
	}
	return session, nil
}
