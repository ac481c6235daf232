package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps users and history in process. It backs the server when the
// database is disabled, so data does not survive a restart.
type Memory struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]User
	byName  map[string]uuid.UUID
	history map[uuid.UUID][]HistoryRecord
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[uuid.UUID]User),
		byName:  make(map[string]uuid.UUID),
		history: make(map[uuid.UUID][]HistoryRecord),
		now:     time.Now,
	}
}

func (m *Memory) CreateUser(_ context.Context, username, passwordHash string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[username]; ok {
		return nil, ErrUserExists
	}
	u := User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    m.now().UTC(),
	}
	m.users[u.ID] = u
	m.byName[username] = u.ID
	return &u, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *Memory) UserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) AppendHistory(_ context.Context, rec *HistoryRecord) error {
	id, err := newHistoryID()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[rec.UserID]; !ok {
		return ErrNotFound
	}
	rec.ID = id
	rec.CreatedAt = m.now().UTC()

	stored := *rec
	stored.PredictedDiseases = slices.Clone(rec.PredictedDiseases)
	stored.Medications = slices.Clone(rec.Medications)
	stored.Specialists = slices.Clone(rec.Specialists)
	m.history[rec.UserID] = append(m.history[rec.UserID], stored)
	return nil
}

func (m *Memory) ListHistory(_ context.Context, userID uuid.UUID) ([]HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.history[userID]
	out := make([]HistoryRecord, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}
