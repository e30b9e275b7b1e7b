package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// InMemoryStore is a volatile SessionStore implementation storing sessions
// in a process local map. It is safe for concurrent access and best suited
// for tests or ephemeral demo servers. Each returned session is cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Get returns a clone of the stored session.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, core.ErrSessionNotFound)
	}
	return sess.Clone(), nil
}

// GetOrCreate returns a clone of the stored session, creating it via seed
// when no session exists for the id.
func (s *InMemoryStore) GetOrCreate(id string, seed func(id string) *core.Session) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Clone(), nil
	}
	sess := seed(id)
	if sess == nil {
		return nil, fmt.Errorf("seed for session %q returned nil", id)
	}
	s.sessions[id] = sess.Clone()
	return sess.Clone(), nil
}

// Save stores a clone of the provided session snapshot.
func (s *InMemoryStore) Save(sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// Delete removes the session.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// InMemoryContextStore keeps per-sequence local contexts as JSON snapshots
// in a process local map. Storing serialized bytes rather than live pointers
// isolates stored state from the working copies mutated during a turn, so an
// aborted turn cannot corrupt what the next turn loads.
type InMemoryContextStore struct {
	mu       sync.RWMutex
	contexts map[string]json.RawMessage // sessionID + "\x00" + sequence
}

// NewInMemoryContextStore constructs an empty in-memory context store.
func NewInMemoryContextStore() *InMemoryContextStore {
	return &InMemoryContextStore{contexts: make(map[string]json.RawMessage)}
}

// GetOrCreate returns the stored context for (sessionID, sequence),
// deserialized into a fresh instance from the sequence's defaults. When no
// snapshot exists the fresh defaults are returned as-is.
func (s *InMemoryContextStore) GetOrCreate(sessionID string, seq *core.Sequence) (core.Context, error) {
	c := seq.NewContext()

	s.mu.RLock()
	raw, ok := s.contexts[contextKey(sessionID, seq.Name)]
	s.mu.RUnlock()
	if !ok {
		return c, nil
	}

	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode context %q for session %q: %w", seq.Name, sessionID, err)
	}
	return c, nil
}

// Save serializes and stores the context snapshot.
func (s *InMemoryContextStore) Save(sessionID, sequenceName string, c core.Context) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode context %q for session %q: %w", sequenceName, sessionID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[contextKey(sessionID, sequenceName)] = raw
	return nil
}

// Delete removes the stored context snapshot.
func (s *InMemoryContextStore) Delete(sessionID, sequenceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, contextKey(sessionID, sequenceName))
	return nil
}

func contextKey(sessionID, sequenceName string) string {
	return sessionID + "\x00" + sequenceName
}
