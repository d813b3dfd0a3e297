package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id            TEXT PRIMARY KEY,
	revision      TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	contract      TEXT NOT NULL,
	expiration    TIMESTAMP NOT NULL,
	buy_price     REAL NOT NULL,
	buy_quantity  INTEGER NOT NULL,
	sold_quantity INTEGER NOT NULL,
	sells         TEXT NOT NULL,
	notes         TEXT NOT NULL DEFAULT '',
	is_open       INTEGER NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id);
CREATE INDEX IF NOT EXISTS idx_trades_user_open ON trades(user_id, is_open);
`

// SQLiteStorage implements Interface on a sqlite database. The sell history
// is stored as a JSON column; compare-and-swap is enforced by matching the
// revision column in the UPDATE/DELETE predicates.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) a sqlite-backed store at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

const tradeColumns = `id, revision, user_id, symbol, contract, expiration,
	buy_price, buy_quantity, sold_quantity, sells, notes, is_open, created_at, updated_at`

func scanTrade(row interface{ Scan(...any) error }) (*models.Trade, error) {
	var t models.Trade
	var sells string
	var isOpen int
	err := row.Scan(&t.ID, &t.Revision, &t.UserID, &t.Symbol, &t.Contract, &t.Expiration,
		&t.BuyPrice, &t.BuyQuantity, &t.SoldQuantity, &sells, &t.Notes, &isOpen, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.IsOpen = isOpen != 0
	if err := json.Unmarshal([]byte(sells), &t.Sells); err != nil {
		return nil, fmt.Errorf("decoding sells for trade %s: %w", t.ID, err)
	}
	return &t, nil
}

func (s *SQLiteStorage) queryTrades(where string, args ...any) ([]models.Trade, error) {
	rows, err := s.db.Query(
		"SELECT "+tradeColumns+" FROM trades WHERE "+where+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Trade, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetTrade returns the trade with the given id, or ErrNotFound.
func (s *SQLiteStorage) GetTrade(id string) (*models.Trade, error) {
	row := s.db.QueryRow("SELECT "+tradeColumns+" FROM trades WHERE id = ?", id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, err
}

// GetTrades returns every trade owned by userID, oldest first.
func (s *SQLiteStorage) GetTrades(userID string) ([]models.Trade, error) {
	return s.queryTrades("user_id = ?", userID)
}

// GetOpenTrades returns userID's trades that are still open, oldest first.
func (s *SQLiteStorage) GetOpenTrades(userID string) ([]models.Trade, error) {
	return s.queryTrades("user_id = ? AND is_open = 1", userID)
}

// GetTradesUpdatedBetween returns userID's trades whose UpdatedAt falls in
// [start, end), oldest first.
func (s *SQLiteStorage) GetTradesUpdatedBetween(userID string, start, end time.Time) ([]models.Trade, error) {
	return s.queryTrades("user_id = ? AND updated_at >= ? AND updated_at < ?", userID, start, end)
}

// ListUsers returns the distinct user ids present in the store, sorted.
func (s *SQLiteStorage) ListUsers() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT user_id FROM trades ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Insert stores a new trade, assigning its id and first revision in place.
func (s *SQLiteStorage) Insert(t *models.Trade) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Revision = firstRevision()

	sells, err := json.Marshal(t.Sells)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Revision, t.UserID, t.Symbol, t.Contract, t.Expiration,
		t.BuyPrice, t.BuyQuantity, t.SoldQuantity, string(sells), t.Notes,
		boolToInt(t.IsOpen), t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// Update replaces a stored trade iff the revision matches, bumping the
// record's revision in place on success.
func (s *SQLiteStorage) Update(t *models.Trade) error {
	sells, err := json.Marshal(t.Sells)
	if err != nil {
		return err
	}
	newRev := nextRevision(t.Revision)

	res, err := s.db.Exec(`
		UPDATE trades SET revision = ?, user_id = ?, symbol = ?, contract = ?,
			expiration = ?, buy_price = ?, buy_quantity = ?, sold_quantity = ?,
			sells = ?, notes = ?, is_open = ?, created_at = ?, updated_at = ?
		WHERE id = ? AND revision = ?`,
		newRev, t.UserID, t.Symbol, t.Contract,
		t.Expiration, t.BuyPrice, t.BuyQuantity, t.SoldQuantity,
		string(sells), t.Notes, boolToInt(t.IsOpen), t.CreatedAt, t.UpdatedAt,
		t.ID, t.Revision,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, getErr := s.GetTrade(t.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("update %s: %w", t.ID, ErrConflict)
	}
	t.Revision = newRev
	return nil
}

// Delete removes a trade, enforcing the same compare-and-swap as Update.
func (s *SQLiteStorage) Delete(id, revision string) error {
	res, err := s.db.Exec("DELETE FROM trades WHERE id = ? AND revision = ?", id, revision)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, getErr := s.GetTrade(id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("delete %s: %w", id, ErrConflict)
	}
	return nil
}

// DeleteUserTrades removes every trade owned by userID.
func (s *SQLiteStorage) DeleteUserTrades(userID string) (int, error) {
	res, err := s.db.Exec("DELETE FROM trades WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close closes the underlying database handle.
func (s *SQLiteStorage) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
