package shield

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager tracks one shield per viewing session, keyed by session id.
type Manager struct {
	origin string
	log    zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Shield
}

// NewManager creates a session manager for the given page origin.
func NewManager(origin string, log zerolog.Logger) *Manager {
	return &Manager{
		origin:   origin,
		log:      log,
		sessions: make(map[string]*Shield),
	}
}

// Create makes a new armed shield session and returns its id.
func (m *Manager) Create(clipboard Clipboard, surface Surface) (string, *Shield) {
	id := uuid.NewString()
	s := New(m.origin, clipboard, surface, m.log.With().Str("session", id).Logger())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	return id, s
}

// Get returns the shield for a session id.
func (m *Manager) Get(id string) (*Shield, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove drops a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
