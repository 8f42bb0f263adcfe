// Package history provides SQLite-based transcript persistence for
// chat-juicer. Every chat session gets a row in sessions; user and
// assistant lines land in messages.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps an SQLite database holding chat transcripts.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Session is one recorded chat session.
type Session struct {
	ID        string
	Profile   string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Message is one transcript line.
type Message struct {
	ID        int64
	SessionID string
	Role      string
	Body      string
	CreatedAt time.Time
}

// Open opens the transcript database at the given path.
// It creates the parent directories if they don't exist.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Store{conn: conn, path: path}, nil
}

// Migrate creates the schema if it doesn't exist.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	profile TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMP NOT NULL,
	ended_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StartSession creates a new session row and returns its ID.
func (s *Store) StartSession(profile string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.conn.Exec(
		"INSERT INTO sessions (id, profile, started_at) VALUES (?, ?, ?)",
		id, profile, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// EndSession marks a session as ended.
func (s *Store) EndSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		"UPDATE sessions SET ended_at = ? WHERE id = ?",
		time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// AppendMessage records one transcript line for a session.
func (s *Store) AppendMessage(sessionID, role, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		"INSERT INTO messages (session_id, role, body, created_at) VALUES (?, ?, ?, ?)",
		sessionID, role, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Messages returns all transcript lines for a session in insertion order.
func (s *Store) Messages(sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(
		"SELECT id, session_id, role, body, created_at FROM messages WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.Query(
		"SELECT id, profile, started_at, ended_at FROM sessions ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var ended sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Profile, &sess.StartedAt, &ended); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			sess.EndedAt = &t
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SessionRecorder binds a Store to one session so callers can record lines
// without carrying the session ID around. It satisfies the bridge's
// Recorder interface.
type SessionRecorder struct {
	store     *Store
	sessionID string
}

// NewSessionRecorder starts a session and returns a recorder bound to it.
func NewSessionRecorder(store *Store, profile string) (*SessionRecorder, error) {
	id, err := store.StartSession(profile)
	if err != nil {
		return nil, err
	}
	return &SessionRecorder{store: store, sessionID: id}, nil
}

// SessionID returns the bound session ID.
func (r *SessionRecorder) SessionID() string {
	return r.sessionID
}

// Record appends one transcript line to the bound session.
func (r *SessionRecorder) Record(role, body string) error {
	return r.store.AppendMessage(r.sessionID, role, body)
}

// End marks the bound session as ended.
func (r *SessionRecorder) End() error {
	return r.store.EndSession(r.sessionID)
}
