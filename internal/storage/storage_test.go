package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

func newTrade(userID, symbol string) models.Trade {
	now := time.Now().UTC()
	return models.Trade{
		UserID:      userID,
		Symbol:      symbol,
		Contract:    "CALL $150",
		Expiration:  now.AddDate(0, 0, 7),
		BuyPrice:    3.0,
		BuyQuantity: 2,
		Sells:       []models.SellEvent{},
		IsOpen:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// backends returns every Interface implementation under test.
func backends(t *testing.T) map[string]Interface {
	t.Helper()
	dir := t.TempDir()

	jsonStore, err := NewJSONStorage(filepath.Join(dir, "trades.json"))
	if err != nil {
		t.Fatalf("NewJSONStorage failed: %v", err)
	}
	sqliteStore, err := NewSQLiteStorage(filepath.Join(dir, "trades.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	t.Cleanup(func() {
		_ = jsonStore.Close()
		_ = sqliteStore.Close()
	})

	return map[string]Interface{
		"json":   jsonStore,
		"sqlite": sqliteStore,
		"mock":   NewMockStorage(),
	}
}

func TestInsertAssignsIdentityAndRevision(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tr := newTrade("user-1", "AAPL")
			if err := store.Insert(&tr); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			if tr.ID == "" {
				t.Error("Expected Insert to assign an id")
			}
			if tr.Revision == "" {
				t.Error("Expected Insert to assign a revision")
			}

			got, err := store.GetTrade(tr.ID)
			if err != nil {
				t.Fatalf("GetTrade failed: %v", err)
			}
			if got.Symbol != "AAPL" || got.Revision != tr.Revision {
				t.Errorf("Round trip mismatch: got %+v", got)
			}
		})
	}
}

func TestUpdateRequiresCurrentRevision(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tr := newTrade("user-1", "AAPL")
			if err := store.Insert(&tr); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			firstRev := tr.Revision

			tr.Notes = "first update"
			if err := store.Update(&tr); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if tr.Revision == firstRev {
				t.Error("Expected Update to advance the revision")
			}

			// A writer still holding the old revision must fail.
			stale := *tr.Clone()
			stale.Revision = firstRev
			stale.Notes = "stale write"
			if err := store.Update(&stale); !errors.Is(err, ErrConflict) {
				t.Fatalf("Expected ErrConflict for stale revision, got %v", err)
			}

			got, err := store.GetTrade(tr.ID)
			if err != nil {
				t.Fatalf("GetTrade failed: %v", err)
			}
			if got.Notes != "first update" {
				t.Errorf("Expected stale write to be rejected, found notes %q", got.Notes)
			}
		})
	}
}

func TestUpdateMissingTrade(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tr := newTrade("user-1", "AAPL")
			tr.ID = "does-not-exist"
			tr.Revision = firstRevision()
			if err := store.Update(&tr); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDeleteEnforcesRevision(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tr := newTrade("user-1", "AAPL")
			if err := store.Insert(&tr); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}

			if err := store.Delete(tr.ID, "1-ffffffffffff"); !errors.Is(err, ErrConflict) {
				t.Fatalf("Expected ErrConflict for wrong revision, got %v", err)
			}
			if err := store.Delete(tr.ID, tr.Revision); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := store.GetTrade(tr.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete(tr.ID, tr.Revision); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound for repeated delete, got %v", err)
			}
		})
	}
}

func TestUserScopedQueries(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := newTrade("user-1", "AAPL")
			b := newTrade("user-1", "TSLA")
			b.IsOpen = false
			b.SoldQuantity = b.BuyQuantity
			c := newTrade("user-2", "MSFT")
			for _, tr := range []*models.Trade{&a, &b, &c} {
				if err := store.Insert(tr); err != nil {
					t.Fatalf("Insert failed: %v", err)
				}
			}

			all, err := store.GetTrades("user-1")
			if err != nil {
				t.Fatalf("GetTrades failed: %v", err)
			}
			if len(all) != 2 {
				t.Errorf("Expected 2 trades for user-1, got %d", len(all))
			}

			open, err := store.GetOpenTrades("user-1")
			if err != nil {
				t.Fatalf("GetOpenTrades failed: %v", err)
			}
			if len(open) != 1 || open[0].Symbol != "AAPL" {
				t.Errorf("Expected only the open AAPL trade, got %+v", open)
			}

			users, err := store.ListUsers()
			if err != nil {
				t.Fatalf("ListUsers failed: %v", err)
			}
			if len(users) != 2 || users[0] != "user-1" || users[1] != "user-2" {
				t.Errorf("Expected sorted users [user-1 user-2], got %v", users)
			}

			n, err := store.DeleteUserTrades("user-1")
			if err != nil {
				t.Fatalf("DeleteUserTrades failed: %v", err)
			}
			if n != 2 {
				t.Errorf("Expected 2 deletions, got %d", n)
			}
			left, err := store.GetTrades("user-1")
			if err != nil {
				t.Fatalf("GetTrades failed: %v", err)
			}
			if len(left) != 0 {
				t.Errorf("Expected no trades left for user-1, got %d", len(left))
			}
		})
	}
}

func TestGetTradesUpdatedBetween(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()
			recent := newTrade("user-1", "AAPL")
			old := newTrade("user-1", "TSLA")
			old.CreatedAt = now.AddDate(0, 0, -10)
			old.UpdatedAt = now.AddDate(0, 0, -10)
			for _, tr := range []*models.Trade{&recent, &old} {
				if err := store.Insert(tr); err != nil {
					t.Fatalf("Insert failed: %v", err)
				}
			}

			got, err := store.GetTradesUpdatedBetween("user-1", now.Add(-time.Hour), now.Add(time.Hour))
			if err != nil {
				t.Fatalf("GetTradesUpdatedBetween failed: %v", err)
			}
			if len(got) != 1 || got[0].Symbol != "AAPL" {
				t.Errorf("Expected only the recent AAPL trade, got %+v", got)
			}
		})
	}
}

// Sells survive the round trip through each backend's serialization.
func TestSellHistoryPersists(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tr := newTrade("user-1", "AAPL")
			if err := store.Insert(&tr); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}

			tr.Sells = append(tr.Sells, models.SellEvent{Price: 5.0, Quantity: 1, Timestamp: time.Now().UTC()})
			tr.SoldQuantity = 1
			if err := store.Update(&tr); err != nil {
				t.Fatalf("Update failed: %v", err)
			}

			got, err := store.GetTrade(tr.ID)
			if err != nil {
				t.Fatalf("GetTrade failed: %v", err)
			}
			if len(got.Sells) != 1 || got.Sells[0].Price != 5.0 {
				t.Errorf("Expected sell history to persist, got %+v", got.Sells)
			}
		})
	}
}

// The JSON store reloads its contents from disk on reopen.
func TestJSONStoragePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")

	store, err := NewJSONStorage(path)
	if err != nil {
		t.Fatalf("NewJSONStorage failed: %v", err)
	}
	tr := newTrade("user-1", "AAPL")
	if err := store.Insert(&tr); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewJSONStorage(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetTrade(tr.ID)
	if err != nil {
		t.Fatalf("GetTrade after reopen failed: %v", err)
	}
	if got.Symbol != "AAPL" || got.Revision != tr.Revision {
		t.Errorf("Reopen round trip mismatch: %+v", got)
	}
}

func TestNewStorageDriverSelection(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStorage("json", filepath.Join(dir, "t.json"))
	if err != nil {
		t.Fatalf("NewStorage(json) failed: %v", err)
	}
	s.Close()

	s, err = NewStorage("sqlite", filepath.Join(dir, "t.db"))
	if err != nil {
		t.Fatalf("NewStorage(sqlite) failed: %v", err)
	}
	s.Close()

	if _, err := NewStorage("couchdb", "x"); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
