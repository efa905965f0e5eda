package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the live sessions and drops the ones left idle past the TTL.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State
	deps     *Deps
	ttl      time.Duration
	logger   *zap.SugaredLogger
}

func NewManager(deps *Deps, ttl time.Duration, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		sessions: make(map[string]*State),
		deps:     deps,
		ttl:      ttl,
		logger:   logger,
	}
}

func (m *Manager) Create(userID string) *State {
	s := New(uuid.NewString(), userID, m.deps)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Infow("session created", "session_id", s.ID, "user_id", userID)
	return s
}

func (m *Manager) Get(id string) (*State, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
		m.logger.Infow("session closed", "session_id", id)
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle since before now minus the TTL.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	var expired []*State
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.logger.Infow("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}
