package store

import (
	"context"
	"sync"
)

// Memory is the in-process Store used in tests and when no DATABASE_URL is
// configured. Same idempotency contract as Postgres.
type Memory struct {
	mu      sync.Mutex
	results map[string]Result
	stats   map[string]UserStats
}

func NewMemory() *Memory {
	return &Memory{
		results: make(map[string]Result),
		stats:   make(map[string]UserStats),
	}
}

func (m *Memory) SaveResult(_ context.Context, res Result) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.results[res.Room.Code]; ok {
		return false, nil
	}
	m.results[res.Room.Code] = res
	return true, nil
}

func (m *Memory) GetUserStats(_ context.Context, participantID string) (UserStats, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.stats[participantID]
	return stats, ok, nil
}

func (m *Memory) PutUserStats(_ context.Context, stats UserStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats[stats.ParticipantID] = stats
	return nil
}

// Result returns the saved record for a room, for tests.
func (m *Memory) Result(code string) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.results[code]
	return res, ok
}
