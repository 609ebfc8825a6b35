package pace

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Key identifies a member's session in a group.
type Key struct {
	UserID  int64
	GroupID int64
}

// UnlockFunc is told when a member's dwell timer runs out.
type UnlockFunc func(userID int64, snap Snapshot)

// Manager holds the server-side reading sessions, one per member and group.
type Manager struct {
	clock    clockwork.Clock
	onUnlock UnlockFunc

	mu       sync.Mutex
	sessions map[Key]*Session
}

// NewManager creates a Manager. onUnlock may be nil.
func NewManager(c clockwork.Clock, onUnlock UnlockFunc) *Manager {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &Manager{
		clock:    c,
		onUnlock: onUnlock,
		sessions: make(map[Key]*Session),
	}
}

// Open returns the member's session for the group, opening it through gw if
// needed. An existing session is refreshed from the gateway instead.
func (m *Manager) Open(ctx context.Context, userID int64, gw Gateway, groupID int64) (*Session, error) {
	key := Key{UserID: userID, GroupID: groupID}
	if s, ok := m.Get(userID, groupID); ok {
		if _, err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}

	opts := []Option{WithClock(m.clock)}
	if m.onUnlock != nil {
		opts = append(opts, WithOnUnlock(func(snap Snapshot) { m.onUnlock(userID, snap) }))
	}
	s, err := Open(ctx, gw, groupID, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[key]; ok && !existing.Closed() {
		// Lost a race with a concurrent Open.
		s.Stop()
		return existing, nil
	}
	m.sessions[key] = s
	return s, nil
}

// Get returns the open session for the member and group.
func (m *Manager) Get(userID, groupID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[Key{UserID: userID, GroupID: groupID}]
	if !ok || s.Closed() {
		return nil, false
	}
	return s, true
}

// Close stores and ends the member's session. Closing a session that is not
// open is a no-op.
func (m *Manager) Close(ctx context.Context, userID, groupID int64) error {
	key := Key{UserID: userID, GroupID: groupID}
	m.mu.Lock()
	s, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	err := s.Close(ctx)
	if errors.Is(err, ErrNavigationInProgress) {
		return err
	}
	m.mu.Lock()
	if m.sessions[key] == s {
		delete(m.sessions, key)
	}
	m.mu.Unlock()
	return err
}

// Drop ends every session of a member in a group without writing anything,
// for when the membership itself is gone.
func (m *Manager) Drop(userID, groupID int64) {
	key := Key{UserID: userID, GroupID: groupID}
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if ok {
		s.Stop()
	}
}

// ReapIdle closes sessions untouched for longer than maxIdle and returns how
// many were closed.
func (m *Manager) ReapIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.clock.Now().Add(-maxIdle)
	var idle []Key
	m.mu.Lock()
	for key, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, key)
		}
	}
	m.mu.Unlock()

	closed := 0
	for _, key := range idle {
		if err := m.Close(ctx, key.UserID, key.GroupID); err != nil {
			log.Printf("Failed to close idle reading session for user %d in group %d: %v", key.UserID, key.GroupID, err)
			continue
		}
		closed++
	}
	return closed
}

// CloseAll closes every session, used on shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	keys := make([]Key, 0, len(m.sessions))
	for key := range m.sessions {
		keys = append(keys, key)
	}
	m.mu.Unlock()

	for _, key := range keys {
		if err := m.Close(ctx, key.UserID, key.GroupID); err != nil {
			log.Printf("Failed to close reading session for user %d in group %d: %v", key.UserID, key.GroupID, err)
		}
	}
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
