package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// ErrConflict is returned by Save when the stored session changed since it was read.
var ErrConflict = errors.New("state: session modified concurrently")

// Session stores conversation state and payload for a user.
type Session struct {
	State     State                      `json:"state"`
	Data      map[string]json.RawMessage `json:"data,omitempty"`
	Version   int64                      `json:"version"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// NewSession returns an idle session that has never been saved.
func NewSession() *Session {
	return &Session{State: StateIdle, Data: map[string]json.RawMessage{}}
}

// Decode unmarshals the payload stored under key into dst and reports whether it was present.
func (s *Session) Decode(key string, dst any) (bool, error) {
	raw, ok := s.Data[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode session %q: %w", key, err)
	}
	return true, nil
}

// Encode stores value under key; a nil value removes the key.
func (s *Session) Encode(key string, value any) error {
	if value == nil {
		delete(s.Data, key)
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", key, err)
	}
	if s.Data == nil {
		s.Data = map[string]json.RawMessage{}
	}
	s.Data[key] = raw
	return nil
}

// Store persists sessions keyed by Telegram user id.
type Store interface {
	// Get returns the stored session or a fresh idle one.
	Get(ctx context.Context, userID int64) (*Session, error)
	// Save writes sess if the stored version still equals sess.Version,
	// then bumps sess.Version. Otherwise it returns ErrConflict.
	Save(ctx context.Context, userID int64, sess *Session) error
	// Clear removes the stored session.
	Clear(ctx context.Context, userID int64) error
}

const updateAttempts = 3

// Update applies fn to the user's session and saves it, retrying on ErrConflict.
func Update(ctx context.Context, store Store, userID int64, fn func(*Session) error) error {
	var err error
	for i := 0; i < updateAttempts; i++ {
		var sess *Session
		sess, err = store.Get(ctx, userID)
		if err != nil {
			return err
		}
		if err = fn(sess); err != nil {
			return err
		}
		err = store.Save(ctx, userID, sess)
		if !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}

// SetState stores a new state tag keeping the payload.
func SetState(ctx context.Context, store Store, userID int64, st State) error {
	return Update(ctx, store, userID, func(s *Session) error {
		s.State = st
		return nil
	})
}

// SetData stores a single payload value keeping the state tag.
func SetData(ctx context.Context, store Store, userID int64, key string, value any) error {
	return Update(ctx, store, userID, func(s *Session) error {
		return s.Encode(key, value)
	})
}
