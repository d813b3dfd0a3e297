// Package storage persists trade records behind a revisioned document-store
// contract: every read returns the record's current revision token, and every
// write must present the token it read. Stale tokens fail with ErrConflict so
// concurrent updates are never silently overwritten.
package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

// Interface defines the contract for trade persistence.
//
// Implementations must be safe for concurrent use and must return deep
// copies, so callers can mutate results without corrupting the store.
type Interface interface {
	// Reads
	GetTrade(id string) (*models.Trade, error)
	GetTrades(userID string) ([]models.Trade, error)
	GetOpenTrades(userID string) ([]models.Trade, error)
	GetTradesUpdatedBetween(userID string, start, end time.Time) ([]models.Trade, error)
	ListUsers() ([]string, error)

	// Writes. Insert assigns ID and the first revision; Update and Delete
	// enforce compare-and-swap on the revision token.
	Insert(t *models.Trade) error
	Update(t *models.Trade) error
	Delete(id, revision string) error
	DeleteUserTrades(userID string) (int, error)

	Close() error
}

// NewStorage creates a storage backend for the given driver ("json" or
// "sqlite").
func NewStorage(driver, path string) (Interface, error) {
	switch driver {
	case "", "json":
		return NewJSONStorage(path)
	case "sqlite":
		return NewSQLiteStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// firstRevision returns the token assigned on insert.
func firstRevision() string {
	return "1-" + revisionSuffix()
}

// nextRevision bumps the generation counter and rotates the opaque suffix.
func nextRevision(current string) string {
	gen := 0
	if idx := strings.IndexByte(current, '-'); idx > 0 {
		if n, err := strconv.Atoi(current[:idx]); err == nil {
			gen = n
		}
	}
	return fmt.Sprintf("%d-%s", gen+1, revisionSuffix())
}

func revisionSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Ensure both backends implement Interface.
var (
	_ Interface = (*JSONStorage)(nil)
	_ Interface = (*SQLiteStorage)(nil)
)
