package agent

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager tracks open sessions by id. Sessions share only the tool
// registry carried in the template config.
type Manager struct {
	template SessionConfig

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager creates a manager that builds sessions from template.
func NewManager(template SessionConfig) *Manager {
	return &Manager{
		template: template,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Open creates a session. An empty id gets a fresh uuid.
func (m *Manager) Open(id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		return nil, ErrSessionExists
	}

	cfg := m.template
	cfg.ID = id
	s := NewSession(cfg)
	s.now = m.now
	s.touch()
	m.sessions[id] = s
	m.template.Metrics.SessionOpened()
	return s, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// IDs returns the open session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes and forgets one session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	m.template.Metrics.SessionClosed()
	return nil
}

// CloseIdle closes sessions inactive for longer than ttl and returns their
// ids. Sessions with an operation in flight are never idle. A non-positive
// ttl closes nothing.
func (m *Manager) CloseIdle(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if !s.Busy() && s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(idle))
	for _, s := range idle {
		s.Close()
		m.template.Metrics.SessionClosed()
		ids = append(ids, s.ID())
	}
	sort.Strings(ids)
	return ids
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
		m.template.Metrics.SessionClosed()
	}
}
