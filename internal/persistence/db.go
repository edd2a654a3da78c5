// Package persistence provides SQLite-backed session storage: compressed
// game state with a sliding TTL, an append-only event log and a small
// metadata table.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/undercurrent/internal/engine"
)

// ErrNotFound is returned for a missing or expired session or meta key.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		city_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		phase TEXT NOT NULL,
		ended INTEGER NOT NULL DEFAULT 0,
		state BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		layer TEXT NOT NULL,
		event_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// ── Sessions ──────────────────────────────────────────────────────────

// SessionInfo is the listing view of a stored session.
type SessionInfo struct {
	ID        string `db:"id" json:"id"`
	CityID    string `db:"city_id" json:"cityId"`
	Turn      int    `db:"turn" json:"turn"`
	Phase     string `db:"phase" json:"phase"`
	Ended     bool   `db:"ended" json:"ended"`
	UpdatedAt int64  `db:"updated_at" json:"updatedAt"`
	ExpiresAt int64  `db:"expires_at" json:"expiresAt"`
}

// Get loads a live session's state.
func (db *DB) Get(id string) (engine.GameState, error) {
	var blob []byte
	err := db.conn.Get(&blob,
		"SELECT state FROM sessions WHERE id = ? AND expires_at > ?",
		id, db.now().Unix(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.GameState{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return engine.GameState{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return decodeState(blob)
}

// Set writes state under its session id and extends the TTL.
func (db *DB) Set(state engine.GameState, ttl time.Duration) error {
	blob, err := encodeState(state)
	if err != nil {
		return err
	}

	now := db.now()
	ended := 0
	if state.Ended() {
		ended = 1
	}
	_, err = db.conn.Exec(`INSERT OR REPLACE INTO sessions
		(id, city_id, turn, phase, ended, state, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		state.SessionID, state.City.ID, state.Turn, string(state.Phase), ended, blob,
		now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("set session %s: %w", state.SessionID, err)
	}
	return nil
}

// Delete removes a session and its event log.
func (db *DB) Delete(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM events WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("delete events %s: %w", id, err)
	}
	return tx.Commit()
}

// Touch extends a live session's TTL without rewriting its state.
func (db *DB) Touch(id string, ttl time.Duration) error {
	now := db.now()
	res, err := db.conn.Exec(
		"UPDATE sessions SET expires_at = ? WHERE id = ? AND expires_at > ?",
		now.Add(ttl).Unix(), id, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// PurgeExpired deletes every expired session and its events.
func (db *DB) PurgeExpired() (int64, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := db.now().Unix()
	if _, err := tx.Exec(
		"DELETE FROM events WHERE session_id IN (SELECT id FROM sessions WHERE expires_at <= ?)",
		cutoff,
	); err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}
	res, err := tx.Exec("DELETE FROM sessions WHERE expires_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("expired sessions purged", "count", n)
	}
	return n, nil
}

// ListSessions returns live sessions, most recently updated first.
func (db *DB) ListSessions(limit int) ([]SessionInfo, error) {
	var out []SessionInfo
	err := db.conn.Select(&out,
		`SELECT id, city_id, turn, phase, ended, updated_at, expires_at
		 FROM sessions WHERE expires_at > ? ORDER BY updated_at DESC, id LIMIT ?`,
		db.now().Unix(), limit,
	)
	return out, err
}

// ── Event log ─────────────────────────────────────────────────────────

// EventRecord is one logged event occurrence.
type EventRecord struct {
	SessionID   string `db:"session_id" json:"sessionId"`
	Turn        int    `db:"turn" json:"turn"`
	Layer       string `db:"layer" json:"layer"`
	EventID     string `db:"event_id" json:"eventId"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
}

// RecordEvents appends events to the log.
func (db *DB) RecordEvents(records []EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.NamedExec(`INSERT INTO events
			(session_id, turn, layer, event_id, title, description)
			VALUES (:session_id, :turn, :layer, :event_id, :title, :description)`, r)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", r.EventID, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns a session's most recent events, newest first.
func (db *DB) RecentEvents(sessionID string, limit int) ([]EventRecord, error) {
	var out []EventRecord
	err := db.conn.Select(&out,
		`SELECT session_id, turn, layer, event_id, title, description
		 FROM events WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	return out, err
}

// ── Metadata ──────────────────────────────────────────────────────────

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %s: %w", key, ErrNotFound)
	}
	return value, err
}
