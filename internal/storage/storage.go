package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

// JSONStorage keeps every trade record in a single JSON file, CouchDB style:
// one document per trade, addressed by id, with a revision token enforcing
// compare-and-swap. Access is serialized with a RWMutex and persisted through
// an atomic temp-file rename.
type JSONStorage struct {
	mu       sync.RWMutex
	filepath string
	data     *storeData
}

type storeData struct {
	Trades      map[string]models.Trade `json:"trades"`
	LastUpdated time.Time               `json:"last_updated"`
}

// NewJSONStorage opens (or creates) a JSON-backed store at path.
func NewJSONStorage(path string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: path,
		data:     &storeData{Trades: make(map[string]models.Trade)},
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("loading storage: %w", err)
		}
	}

	return s, nil
}

func (s *JSONStorage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, s.data); err != nil {
		return err
	}
	if s.data.Trades == nil {
		s.data.Trades = make(map[string]models.Trade)
	}
	return nil
}

// persistLocked writes the store to disk. Callers must hold the write lock.
func (s *JSONStorage) persistLocked() error {
	s.data.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.filepath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := s.filepath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filepath)
}

// GetTrade returns the trade with the given id, or ErrNotFound.
func (s *JSONStorage) GetTrade(id string) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data.Trades[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.Clone(), nil
}

// GetTrades returns every trade owned by userID, oldest first.
func (s *JSONStorage) GetTrades(userID string) ([]models.Trade, error) {
	return s.filter(func(t *models.Trade) bool { return t.UserID == userID })
}

// GetOpenTrades returns userID's trades that are still open, oldest first.
func (s *JSONStorage) GetOpenTrades(userID string) ([]models.Trade, error) {
	return s.filter(func(t *models.Trade) bool { return t.UserID == userID && t.IsOpen })
}

// GetTradesUpdatedBetween returns userID's trades whose UpdatedAt falls in
// [start, end), oldest first.
func (s *JSONStorage) GetTradesUpdatedBetween(userID string, start, end time.Time) ([]models.Trade, error) {
	return s.filter(func(t *models.Trade) bool {
		return t.UserID == userID && !t.UpdatedAt.Before(start) && t.UpdatedAt.Before(end)
	})
}

func (s *JSONStorage) filter(keep func(*models.Trade) bool) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Trade, 0)
	for id := range s.data.Trades {
		t := s.data.Trades[id]
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
	return out, nil
}

// ListUsers returns the distinct user ids present in the store, sorted.
func (s *JSONStorage) ListUsers() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.data.Trades {
		seen[t.UserID] = struct{}{}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

// Insert stores a new trade, assigning its id and first revision. The passed
// record is updated in place with both.
func (s *JSONStorage) Insert(t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.data.Trades[t.ID]; exists {
		return fmt.Errorf("insert %s: %w", t.ID, ErrConflict)
	}
	t.Revision = firstRevision()

	s.data.Trades[t.ID] = *t.Clone()
	return s.persistLocked()
}

// Update replaces a stored trade. The record must carry the revision it was
// read with; a stale revision fails with ErrConflict and leaves the store
// untouched. On success the record's revision is bumped in place.
func (s *JSONStorage) Update(t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data.Trades[t.ID]
	if !ok {
		return fmt.Errorf("update %s: %w", t.ID, ErrNotFound)
	}
	if current.Revision != t.Revision {
		return fmt.Errorf("update %s: have %s, stored %s: %w", t.ID, t.Revision, current.Revision, ErrConflict)
	}

	t.Revision = nextRevision(current.Revision)
	s.data.Trades[t.ID] = *t.Clone()
	return s.persistLocked()
}

// Delete removes a trade, enforcing the same compare-and-swap as Update.
func (s *JSONStorage) Delete(id, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data.Trades[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	if current.Revision != revision {
		return fmt.Errorf("delete %s: have %s, stored %s: %w", id, revision, current.Revision, ErrConflict)
	}

	delete(s.data.Trades, id)
	return s.persistLocked()
}

// DeleteUserTrades removes every trade owned by userID and returns how many
// were deleted.
func (s *JSONStorage) DeleteUserTrades(userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, t := range s.data.Trades {
		if t.UserID == userID {
			delete(s.data.Trades, id)
			deleted++
		}
	}
	if deleted == 0 {
		return 0, nil
	}
	return deleted, s.persistLocked()
}

// Close is a no-op for the JSON backend.
func (s *JSONStorage) Close() error { return nil }
