package history

import (
	"sync"

	"medi-plus/internal/dispatch"
)

// Turn is one utterance and the reply it got.
type Turn struct {
	Utterance string
	Reply     dispatch.Reply
}

// Manager keeps the last few turns per user for the transport layer
// (repeat, reset). The engine itself stays stateless.
type Manager struct {
	mu       sync.RWMutex
	limit    int
	sessions map[int64][]Turn
}

func NewManager(limit int) *Manager {
	if limit <= 0 {
		limit = 1
	}
	return &Manager{limit: limit, sessions: make(map[int64][]Turn)}
}

func (m *Manager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *Manager) Append(userID int64, t Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.sessions[userID], t)
	if over := len(turns) - m.limit; over > 0 {
		turns = append([]Turn(nil), turns[over:]...)
	}
	m.sessions[userID] = turns
}

// Last returns the most recent turn, if any.
func (m *Manager) Last(userID int64) (Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.sessions[userID]
	if len(turns) == 0 {
		return Turn{}, false
	}
	return turns[len(turns)-1], true
}

// LastMatched returns the most recent turn that hit a real rule, skipping
// fallbacks, so "repeat" replays the last instructions rather than the
// "did not understand" message.
func (m *Manager) LastMatched(userID int64) (Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.sessions[userID]
	for i := len(turns) - 1; i >= 0; i-- {
		if !turns[i].Reply.Fallback {
			return turns[i], true
		}
	}
	return Turn{}, false
}

func (m *Manager) Get(userID int64) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Turn(nil), m.sessions[userID]...)
}
