package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

// MockStorage implements Interface in memory for tests. It enforces the same
// revision compare-and-swap as the real backends and lets tests inject
// failures.
type MockStorage struct {
	trades map[string]models.Trade

	// Error injection
	InsertErr error
	UpdateErr error
	// ConflictNext forces the next N Update calls to fail with ErrConflict
	// while still applying the concurrent writer's bump, simulating a racing
	// writer between read and write.
	ConflictNext int

	InsertCalls int
	UpdateCalls int
}

// NewMockStorage creates an empty in-memory store.
func NewMockStorage() *MockStorage {
	return &MockStorage{trades: make(map[string]models.Trade)}
}

// Seed places a trade directly into the store, assigning id/revision if
// missing, bypassing error injection.
func (m *MockStorage) Seed(t models.Trade) models.Trade {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Revision == "" {
		t.Revision = firstRevision()
	}
	m.trades[t.ID] = *t.Clone()
	return t
}

func (m *MockStorage) GetTrade(id string) (*models.Trade, error) {
	t, ok := m.trades[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.Clone(), nil
}

func (m *MockStorage) GetTrades(userID string) ([]models.Trade, error) {
	return m.filter(func(t *models.Trade) bool { return t.UserID == userID }), nil
}

func (m *MockStorage) GetOpenTrades(userID string) ([]models.Trade, error) {
	return m.filter(func(t *models.Trade) bool { return t.UserID == userID && t.IsOpen }), nil
}

func (m *MockStorage) GetTradesUpdatedBetween(userID string, start, end time.Time) ([]models.Trade, error) {
	return m.filter(func(t *models.Trade) bool {
		return t.UserID == userID && !t.UpdatedAt.Before(start) && t.UpdatedAt.Before(end)
	}), nil
}

func (m *MockStorage) filter(keep func(*models.Trade) bool) []models.Trade {
	out := make([]models.Trade, 0)
	for id := range m.trades {
		t := m.trades[id]
		if keep(&t) {
			out = append(out, *t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MockStorage) ListUsers() ([]string, error) {
	seen := make(map[string]struct{})
	for _, t := range m.trades {
		seen[t.UserID] = struct{}{}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (m *MockStorage) Insert(t *models.Trade) error {
	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Revision = firstRevision()
	m.trades[t.ID] = *t.Clone()
	return nil
}

func (m *MockStorage) Update(t *models.Trade) error {
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	current, ok := m.trades[t.ID]
	if !ok {
		return fmt.Errorf("update %s: %w", t.ID, ErrNotFound)
	}
	if m.ConflictNext > 0 {
		m.ConflictNext--
		current.Revision = nextRevision(current.Revision)
		m.trades[t.ID] = current
		return fmt.Errorf("update %s: %w", t.ID, ErrConflict)
	}
	if current.Revision != t.Revision {
		return fmt.Errorf("update %s: %w", t.ID, ErrConflict)
	}

	t.Revision = nextRevision(current.Revision)
	m.trades[t.ID] = *t.Clone()
	return nil
}

func (m *MockStorage) Delete(id, revision string) error {
	current, ok := m.trades[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	if current.Revision != revision {
		return fmt.Errorf("delete %s: %w", id, ErrConflict)
	}
	delete(m.trades, id)
	return nil
}

func (m *MockStorage) DeleteUserTrades(userID string) (int, error) {
	deleted := 0
	for id, t := range m.trades {
		if t.UserID == userID {
			delete(m.trades, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockStorage) Close() error { return nil }
