package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrNotFound = errors.New("session not found")
var ErrInactive = errors.New("session inactive")

// Session binds a human participant to their seat in a room. The binding
// outlives any single connection: a dropped heartbeat marks the session
// disconnected, never deletes it, so the same token resumes the same seat.
type Session struct {
	Token         string    `json:"token"`
	RoomCode      string    `json:"room_code"`
	ParticipantID string    `json:"participant_id"`
	Name          string    `json:"name"`
	TeamID        string    `json:"team_id,omitempty"`
	Active        bool      `json:"active"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clock    clockwork.Clock
	ttl      time.Duration
}

func NewManager(clock clockwork.Clock, ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		clock:    clock,
		ttl:      ttl,
	}
}

// Create issues a fresh session for a participant joining roomCode. Tokens
// and participant ids are uuids: unguessable, never reused.
func (m *Manager) Create(roomCode, name string) Session {
	return m.CreateWithParticipant(roomCode, name, uuid.NewString())
}

// CreateWithParticipant issues a session for a participant id chosen by the
// caller, for flows where the id must exist before the room does (the host's
// id is baked into the room state at creation).
func (m *Manager) CreateWithParticipant(roomCode, name, participantID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		Token:         uuid.NewString(),
		RoomCode:      roomCode,
		ParticipantID: participantID,
		Name:          name,
		Active:        true,
		LastHeartbeat: m.clock.Now(),
	}
	m.sessions[s.Token] = s
	return *s
}

// Validate resolves an active session by token.
func (m *Manager) Validate(token string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	if !s.Active {
		return Session{}, ErrInactive
	}
	return *s, nil
}

// Reconnect re-activates a session, active or not, preserving its team
// binding. Only an unknown token fails.
func (m *Manager) Reconnect(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.Active = true
	s.LastHeartbeat = m.clock.Now()
	return *s, nil
}

func (m *Manager) Heartbeat(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	s.LastHeartbeat = m.clock.Now()
	return nil
}

// Invalidate deactivates without deleting; history is retained for auditing
// and the token still reconnects.
func (m *Manager) Invalidate(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	s.Active = false
	return nil
}

func (m *Manager) BindTeam(token, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	s.TeamID = teamID
	return nil
}

// Alive reports whether the session heartbeated within the liveness window.
// A stale session is disconnected, not gone: nothing is evicted here.
func (m *Manager) Alive(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok || !s.Active {
		return false
	}
	return m.clock.Since(s.LastHeartbeat) <= m.ttl
}

// ByRoom lists sessions bound to a room, active or not.
func (m *Manager) ByRoom(roomCode string) []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Session
	for _, s := range m.sessions {
		if s.RoomCode == roomCode {
			out = append(out, *s)
		}
	}
	return out
}
