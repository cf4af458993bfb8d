package session

import (
	"sync"
	"time"
)

// Manager owns one Session per browser and serializes work on it. Requests
// for the same session run one at a time; different sessions run in parallel.
type Manager struct {
	newSession func(id string) *Session
	onEvict    func(s *Session)

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	sess     *Session
	lastUsed time.Time
}

// NewManager builds sessions on first use with newSession. onEvict, if not
// nil, runs for every session dropped by Cleanup.
func NewManager(newSession func(id string) *Session, onEvict func(s *Session)) *Manager {
	return &Manager{
		newSession: newSession,
		onEvict:    onEvict,
		sessions:   make(map[string]*entry),
	}
}

// WithLock executes fn while holding the session's mutex, creating the
// session if it does not exist yet.
func (m *Manager) WithLock(id string, fn func(s *Session) error) error {
	e := m.entry(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastUsed = time.Now()
	return fn(e.sess)
}

// entry returns the entry for id, creating it already marked as used so a
// concurrent Cleanup cannot evict it before its first WithLock runs.
func (m *Manager) entry(id string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		e = &entry{sess: m.newSession(id), lastUsed: time.Now()}
		m.sessions[id] = e
	}
	return e
}

// Exists reports whether id names a live session.
func (m *Manager) Exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Cleanup removes sessions not used within maxAge and returns how many
// were dropped.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	var evicted []*Session
	now := time.Now()
	for id, e := range m.sessions {
		e.mu.Lock()
		idle := now.Sub(e.lastUsed) > maxAge
		e.mu.Unlock()
		if idle {
			evicted = append(evicted, e.sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	if m.onEvict != nil {
		for _, s := range evicted {
			m.onEvict(s)
		}
	}
	return len(evicted)
}
