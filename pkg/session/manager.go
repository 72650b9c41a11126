package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MaxSessions limits concurrent sessions held by a Manager.
const MaxSessions = 32

// SessionMaxAge is how long an idle session is kept before cleanup.
const SessionMaxAge = 30 * time.Minute

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// state pairs a session with the lock that serialises access to it.
type state struct {
	mu           sync.Mutex
	session      *Session
	lastAccessed time.Time
}

// Manager holds the live sessions of a multi-client transport.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*state
	opts     Options
	log      zerolog.Logger
	now      func() time.Time
}

// NewManager creates a manager whose sessions are built with opts.
func NewManager(opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*state),
		opts:     opts,
		log:      opts.Logger,
		now:      time.Now,
	}
}

// Create starts a new session and returns its id. When the manager is full
// the least recently used session is evicted first.
func (m *Manager) Create() string {
	s := New(m.opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= MaxSessions {
		m.evictOldestLocked()
	}
	m.sessions[s.ID] = &state{session: s, lastAccessed: m.now()}
	m.log.Info().Str("session", s.ID).Int("active", len(m.sessions)).Msg("session created")
	return s.ID
}

// With runs fn on the session with the given id while holding its lock.
func (m *Manager) With(id string, fn func(*Session) error) error {
	m.mu.RLock()
	st, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastAccessed = m.now()
	return fn(st.session)
}

// Delete removes a session. It reports whether the id existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.log.Info().Str("session", id).Msg("session deleted")
	return true
}

// IDs returns the live session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions drops sessions idle for longer than maxAge and
// returns how many were removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	n := 0
	for id, st := range m.sessions {
		st.mu.Lock()
		idle := st.lastAccessed.Before(cutoff)
		st.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.log.Info().Int("removed", n).Int("active", len(m.sessions)).Msg("idle sessions cleaned up")
	}
	return n
}

func (m *Manager) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, st := range m.sessions {
		st.mu.Lock()
		t := st.lastAccessed
		st.mu.Unlock()
		if oldestID == "" || t.Before(oldest) {
			oldestID, oldest = id, t
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		m.log.Warn().Str("session", oldestID).Msg("session limit reached, evicted least recently used")
	}
}
