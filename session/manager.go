package session

import (
	"errors"
	"sync"
)

// MaxSessions bounds how many sessions a Manager holds.
const MaxSessions = 10

// ErrTooManySessions is returned by Add and Open once MaxSessions is reached.
var ErrTooManySessions = errors.New("too many sessions")

// Manager keeps an ordered set of sessions with one of them active.
type Manager struct {
	sessions    []*Session
	activeIndex int
	template    Options
	mu          sync.RWMutex
}

// NewManager returns an empty manager. Open uses template for every new
// session, overriding only the directory.
func NewManager(template Options) *Manager {
	return &Manager{
		sessions: make([]*Session, 0, MaxSessions),
		template: template,
	}
}

// Open spawns a session in dir, adds it and makes it active.
func (m *Manager) Open(dir string) (*Session, error) {
	m.mu.RLock()
	opts := m.template
	full := len(m.sessions) >= MaxSessions
	m.mu.RUnlock()
	if full {
		return nil, ErrTooManySessions
	}

	opts.Dir = dir
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := m.Add(s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Add appends s and makes it active.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= MaxSessions {
		return ErrTooManySessions
	}
	m.sessions = append(m.sessions, s)
	m.activeIndex = len(m.sessions) - 1
	return nil
}

// Active returns the active session, or nil when there is none.
func (m *Manager) Active() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.sessions) == 0 {
		return nil
	}
	return m.sessions[m.activeIndex]
}

// ActiveIndex returns the position of the active session.
func (m *Manager) ActiveIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeIndex
}

// Next switches to the next session
func (m *Manager) Next() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) > 1 {
		m.activeIndex = (m.activeIndex + 1) % len(m.sessions)
	}
}

// Prev switches to the previous session
func (m *Manager) Prev() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) > 1 {
		m.activeIndex = (m.activeIndex - 1 + len(m.sessions)) % len(m.sessions)
	}
}

// Remove closes and drops the session with the given id.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	var removed *Session
	for i, s := range m.sessions {
		if s.ID() == id {
			removed = s
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			if m.activeIndex > i || m.activeIndex >= len(m.sessions) {
				m.activeIndex = max(m.activeIndex-1, 0)
			}
			break
		}
	}
	m.mu.Unlock()

	if removed == nil {
		return false
	}
	_ = removed.Close()
	return true
}

// ProcessAll drains pending input for every session and reports whether
// any of them had some.
func (m *Manager) ProcessAll() bool {
	had := false
	for _, s := range m.Sessions() {
		if s.ProcessPendingInput().HadInput {
			had = true
		}
	}
	return had
}

// ResizeAll resizes every session.
func (m *Manager) ResizeAll(rows, cols uint16) {
	for _, s := range m.Sessions() {
		s.Resize(rows, cols)
	}
}

// CleanupExited closes and drops sessions whose PTY has closed and returns
// how many were removed.
func (m *Manager) CleanupExited() int {
	m.mu.Lock()
	var kept, exited []*Session
	for _, s := range m.sessions {
		st := s.State()
		if st == StateClosed || st == StateFailed || !s.IsAlive() {
			exited = append(exited, s)
		} else {
			kept = append(kept, s)
		}
	}
	m.sessions = kept
	if m.activeIndex >= len(m.sessions) {
		m.activeIndex = max(len(m.sessions)-1, 0)
	}
	m.mu.Unlock()

	for _, s := range exited {
		_ = s.Close()
	}
	return len(exited)
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sessions returns a copy of the session list.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Session(nil), m.sessions...)
}

// CloseAll closes every session and empties the manager.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = nil
	m.activeIndex = 0
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
}
