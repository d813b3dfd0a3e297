// Package ledger implements the position lifecycle rules: creating a
// position on a first buy, merging repeat buys at a weighted-average cost,
// and applying partial or full sells. Every function is pure: records go in
// by value and come out by value, and persistence belongs to the caller.
package ledger

import (
	"strings"
	"time"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

// New builds an open trade record for a first buy. Price and quantity are
// assumed validated by the caller.
func New(userID, symbol, contract string, expiration time.Time, price float64, quantity int, notes string) models.Trade {
	now := time.Now().UTC()
	return models.Trade{
		UserID:      userID,
		Symbol:      NormalizeSymbol(symbol),
		Contract:    strings.TrimSpace(contract),
		Expiration:  expiration,
		BuyPrice:    price,
		BuyQuantity: quantity,
		Sells:       make([]models.SellEvent, 0),
		Notes:       notes,
		IsOpen:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FindMergeCandidate returns the first open position in the candidate set
// whose identity key (user, symbol, contract, expiration day) matches the
// incoming buy, or nil when the buy should open a new position. Symbol and
// contract compare case- and whitespace-insensitively; expirations compare by
// calendar day only.
func FindMergeCandidate(open []models.Trade, userID, symbol, contract string, expiration time.Time) *models.Trade {
	wantSymbol := NormalizeSymbol(symbol)
	wantContract := NormalizeContract(contract)
	for i := range open {
		t := &open[i]
		if !t.IsOpen || t.UserID != userID {
			continue
		}
		if NormalizeSymbol(t.Symbol) != wantSymbol {
			continue
		}
		if NormalizeContract(t.Contract) != wantContract {
			continue
		}
		if !models.SameDay(t.Expiration, expiration) {
			continue
		}
		return t
	}
	return nil
}

// MergeBuy folds an additional buy into an existing open position, moving
// the average price to (p1*n1 + p2*n2) / (n1+n2). Empty incoming notes keep
// the existing notes. Merging into a closed position is rejected; the caller
// must open a new position instead.
func MergeBuy(existing models.Trade, price float64, quantity int, notes string) (models.Trade, error) {
	if !existing.IsOpen {
		return existing, ErrInvalidMergeState
	}

	totalCost := existing.BuyPrice*float64(existing.BuyQuantity) + price*float64(quantity)
	totalQuantity := existing.BuyQuantity + quantity

	merged := *existing.Clone()
	merged.BuyPrice = totalCost / float64(totalQuantity)
	merged.BuyQuantity = totalQuantity
	if notes != "" {
		merged.Notes = notes
	}
	merged.UpdatedAt = time.Now().UTC()
	return merged, nil
}

// ApplySell records a sell of quantity contracts at price against an open
// position. Selling more than the open remainder fails with ErrOverSell and
// returns the input unchanged. A sell that exhausts the remainder closes the
// position.
func ApplySell(existing models.Trade, price float64, quantity int) (models.Trade, error) {
	if quantity <= 0 || quantity > existing.Remaining() {
		return existing, ErrOverSell
	}

	now := time.Now().UTC()
	sold := *existing.Clone()
	sold.SoldQuantity += quantity
	sold.Sells = append(sold.Sells, models.SellEvent{
		Price:     price,
		Quantity:  quantity,
		Timestamp: now,
	})
	sold.IsOpen = sold.SoldQuantity < sold.BuyQuantity
	sold.UpdatedAt = now
	return sold, nil
}

// NormalizeSymbol upper-cases and trims a stock symbol for identity
// comparison and storage.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeContract trims and upper-cases a contract descriptor for identity
// comparison.
func NormalizeContract(contract string) string {
	return strings.ToUpper(strings.TrimSpace(contract))
}
