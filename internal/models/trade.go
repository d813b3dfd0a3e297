// Package models defines the trade record entity and its derivations.
package models

import "time"

// SharesPerContract is the standard option contract multiplier.
const SharesPerContract = 100.0

// SellEvent records a single sell against a trade. The sell history is
// append-only; entries are never edited or removed once written.
type SellEvent struct {
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// Trade represents one logical option position for a user: the cumulative
// buy side (weighted-average price) plus every sell recorded against it.
type Trade struct {
	ID           string      `json:"id"`
	Revision     string      `json:"revision"` // set by the store; required on update/delete
	UserID       string      `json:"user_id"`
	Symbol       string      `json:"symbol"`   // upper-cased
	Contract     string      `json:"contract"` // normalized, e.g. "CALL $150"
	Expiration   time.Time   `json:"expiration"`
	BuyPrice     float64     `json:"buy_price"` // weighted average across merged buys
	BuyQuantity  int         `json:"buy_quantity"`
	SoldQuantity int         `json:"sold_quantity"`
	Sells        []SellEvent `json:"sells"`
	Notes        string      `json:"notes,omitempty"`
	IsOpen       bool        `json:"is_open"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Remaining returns the quantity still open for selling.
func (t *Trade) Remaining() int {
	return t.BuyQuantity - t.SoldQuantity
}

// SellProfit returns the realized P/L of a single sell event against this
// trade's average buy price, in dollars.
func (t *Trade) SellProfit(ev SellEvent) float64 {
	return (ev.Price - t.BuyPrice) * float64(ev.Quantity) * SharesPerContract
}

// SellProfitPercent returns a sell's P/L as a percentage of its cost basis.
// Returns 0 when the cost basis is zero.
func (t *Trade) SellProfitPercent(ev SellEvent) float64 {
	basis := t.BuyPrice * float64(ev.Quantity) * SharesPerContract
	if basis == 0 {
		return 0
	}
	return t.SellProfit(ev) / basis * 100
}

// LastSell returns the most recent sell event, or nil if none exist.
func (t *Trade) LastSell() *SellEvent {
	if len(t.Sells) == 0 {
		return nil
	}
	return &t.Sells[len(t.Sells)-1]
}

// DaysToExpiration returns the signed number of calendar days from now until
// expiration. Zero or negative means the contract expires today or already
// expired.
func (t *Trade) DaysToExpiration(now time.Time) int {
	return DaysBetween(now, t.Expiration)
}

// DaysBetween returns the signed number of calendar days from one instant's
// day to another's, ignoring time of day.
func DaysBetween(from, to time.Time) int {
	f := from.UTC().Truncate(24 * time.Hour)
	t := to.UTC().Truncate(24 * time.Hour)
	return int(t.Sub(f).Hours() / 24)
}

// SameDay reports whether two instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Clone returns a deep copy, so callers can hand records across the storage
// boundary without sharing the sells slice.
func (t *Trade) Clone() *Trade {
	c := *t
	if t.Sells != nil {
		c.Sells = make([]SellEvent, len(t.Sells))
		copy(c.Sells, t.Sells)
	}
	return &c
}
