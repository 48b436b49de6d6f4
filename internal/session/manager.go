package session

import (
	"context"
	"sync"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/services"
)

// Manager hands out one session per user. Sessions are created lazily
// on first use and primed with an initial refresh; a login with the
// same user id reuses the live session and its mirror.
type Manager struct {
	mu       sync.Mutex
	svcs     *services.Services
	sessions map[uint]*Session
}

// NewManager creates a session manager
func NewManager(svcs *services.Services) *Manager {
	return &Manager{
		svcs:     svcs,
		sessions: make(map[uint]*Session),
	}
}

// For returns the actor's session, creating and priming it when absent
func (m *Manager) For(ctx context.Context, actor *models.User) (*Session, error) {
	if actor == nil {
		return nil, services.ErrUnauthorized
	}

	m.mu.Lock()
	sess, ok := m.sessions[actor.ID]
	if !ok {
		sess = New(actor, m.svcs)
		m.sessions[actor.ID] = sess
	} else {
		// The actor row is reloaded per request; keep the freshest copy
		// so a campus reassignment reshapes the scope.
		sess.setActor(actor)
	}
	m.mu.Unlock()

	if !ok {
		if err := sess.Refresh(ctx); err != nil {
			m.mu.Lock()
			delete(m.sessions, actor.ID)
			m.mu.Unlock()
			return nil, err
		}
	}
	return sess, nil
}

// Drop discards a user's session, forcing a fresh mirror on next use
func (m *Manager) Drop(userID uint) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}
