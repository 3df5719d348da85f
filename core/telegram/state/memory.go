package state

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Sessions are stored
// serialized so callers never share mutable state with the store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64][]byte
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory Store for tests and development.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64][]byte), now: time.Now}
}

// Get returns the stored session or a fresh idle one.
func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	raw, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return NewSession(), nil
	}
	sess := NewSession()
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save writes the session with an optimistic version check.
func (m *MemoryStore) Save(_ context.Context, userID int64, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if raw, ok := m.sessions[userID]; ok {
		var stored Session
		if err := json.Unmarshal(raw, &stored); err != nil {
			return err
		}
		current = stored.Version
	}
	if current != sess.Version {
		return ErrConflict
	}

	next := *sess
	next.Version++
	next.UpdatedAt = m.now().UTC()
	raw, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	m.sessions[userID] = raw
	*sess = next
	return nil
}

// Clear removes the entire session for a user.
func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
