package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id      TEXT PRIMARY KEY,
	data    TEXT NOT NULL,
	updated TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS contexts (
	session_id TEXT NOT NULL,
	sequence   TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (session_id, sequence)
);
`

// SQLiteStore is a durable SessionStore and ContextStore backed by a single
// SQLite database file. Sessions and sequence contexts are stored as JSON
// documents, which keeps the schema stable while flow state evolves.
//
// The store opens the database in WAL mode so reads do not block the
// per-session write path.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists. Pass ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the stored session.
func (s *SQLiteStore) Get(id string) (*core.Session, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id).Scan(&raw)
	switch {
	case err == nil:
		sess := &core.Session{}
		if err := json.Unmarshal(raw, sess); err != nil {
			return nil, fmt.Errorf("decode session %q: %w", id, err)
		}
		return sess, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("session %q: %w", id, core.ErrSessionNotFound)
	default:
		return nil, fmt.Errorf("query session %q: %w", id, err)
	}
}

// GetOrCreate returns the stored session or creates one via seed, persisting
// the seeded session before returning it.
func (s *SQLiteStore) GetOrCreate(id string, seed func(id string) *core.Session) (*core.Session, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id).Scan(&raw)
	switch {
	case err == nil:
		sess := &core.Session{}
		if err := json.Unmarshal(raw, sess); err != nil {
			return nil, fmt.Errorf("decode session %q: %w", id, err)
		}
		return sess, nil
	case errors.Is(err, sql.ErrNoRows):
		sess := seed(id)
		if sess == nil {
			return nil, fmt.Errorf("seed for session %q returned nil", id)
		}
		if err := s.Save(sess); err != nil {
			return nil, err
		}
		return sess, nil
	default:
		return nil, fmt.Errorf("query session %q: %w", id, err)
	}
}

// Save upserts the session snapshot as JSON.
func (s *SQLiteStore) Save(sess *core.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", sess.ID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, data, updated) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated = excluded.updated`,
		sess.ID, string(raw), sess.Updated.Format("2006-01-02T15:04:05.000Z07:00"))
	if err != nil {
		return fmt.Errorf("save session %q: %w", sess.ID, err)
	}
	return nil
}

// Delete removes the session and every context derived from it.
func (s *SQLiteStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM contexts WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete contexts for %q: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}

// GetOrCreateContext returns the stored context for (sessionID, sequence),
// deserialized into a fresh instance from the sequence's defaults.
func (s *SQLiteStore) GetOrCreateContext(sessionID string, seq *core.Sequence) (core.Context, error) {
	c := seq.NewContext()

	var raw []byte
	err := s.db.QueryRow(
		`SELECT data FROM contexts WHERE session_id = ? AND sequence = ?`,
		sessionID, seq.Name).Scan(&raw)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("decode context %q for session %q: %w", seq.Name, sessionID, err)
		}
		return c, nil
	case errors.Is(err, sql.ErrNoRows):
		return c, nil
	default:
		return nil, fmt.Errorf("query context %q for session %q: %w", seq.Name, sessionID, err)
	}
}

// SaveContext upserts the context snapshot as JSON.
func (s *SQLiteStore) SaveContext(sessionID, sequenceName string, c core.Context) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode context %q for session %q: %w", sequenceName, sessionID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO contexts (session_id, sequence, data) VALUES (?, ?, ?)
		ON CONFLICT (session_id, sequence) DO UPDATE SET data = excluded.data`,
		sessionID, sequenceName, string(raw))
	if err != nil {
		return fmt.Errorf("save context %q for session %q: %w", sequenceName, sessionID, err)
	}
	return nil
}

// DeleteContext removes the stored context snapshot.
func (s *SQLiteStore) DeleteContext(sessionID, sequenceName string) error {
	_, err := s.db.Exec(
		`DELETE FROM contexts WHERE session_id = ? AND sequence = ?`,
		sessionID, sequenceName)
	if err != nil {
		return fmt.Errorf("delete context %q for session %q: %w", sequenceName, sessionID, err)
	}
	return nil
}

// Contexts adapts the store to core.ContextStore. SQLiteStore itself exposes
// the context methods under distinct names so one instance can serve both
// roles without method collisions.
func (s *SQLiteStore) Contexts() core.ContextStore {
	return sqliteContexts{s}
}

type sqliteContexts struct{ store *SQLiteStore }

func (c sqliteContexts) GetOrCreate(sessionID string, seq *core.Sequence) (core.Context, error) {
	return c.store.GetOrCreateContext(sessionID, seq)
}

func (c sqliteContexts) Save(sessionID, sequenceName string, ctx core.Context) error {
	return c.store.SaveContext(sessionID, sequenceName, ctx)
}

func (c sqliteContexts) Delete(sessionID, sequenceName string) error {
	return c.store.DeleteContext(sessionID, sequenceName)
}
