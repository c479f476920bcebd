// Package session holds per-conversation state. Sessions are explicit
// values owned by the caller, process-local, and lost on restart.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parley-hq/parley/pkg/types"
)

const defaultMaxTurns = 20

// Session is an append-only, bounded conversation turn log.
type Session struct {
	ID       string
	maxTurns int

	mu    sync.Mutex
	turns []types.ConversationTurn
}

// New creates a session with the given turn window. maxTurns <= 0 selects
// the default.
func New(maxTurns int) *Session {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Session{
		ID:       uuid.NewString(),
		maxTurns: maxTurns,
	}
}

// Append records a turn. The log keeps only the most recent maxTurns
// entries; older turns fall out of the context window.
func (s *Session) Append(role types.TurnRole, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, types.ConversationTurn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if len(s.turns) > s.maxTurns {
		s.turns = s.turns[len(s.turns)-s.maxTurns:]
	}
}

// Turns returns a copy of the bounded turn log, oldest first.
func (s *Session) Turns() []types.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Reset clears the conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Manager tracks live sessions by ID.
type Manager struct {
	maxTurns int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(maxTurns int) *Manager {
	return &Manager{
		maxTurns: maxTurns,
		sessions: map[string]*Session{},
	}
}

// Create registers and returns a new session.
func (m *Manager) Create() *Session {
	s := New(m.maxTurns)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove tears down a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
