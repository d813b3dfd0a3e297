// Package stats derives daily and period performance figures from a set of
// trade records. Like the ledger, everything here is pure: callers fetch
// records from storage and pass them in.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

// Stats summarizes one day of trading activity.
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       int     `json:"win_rate"` // percent, rounded
	TotalPL       float64 `json:"total_pl"`
}

// Daily computes trade counts, win/loss classification and realized P/L for
// the given calendar day.
//
// Counting rule: a record contributes one trade if it was created on the day
// (a buy action) and, separately, one more trade if it has sells dated on the
// day. A same-day round trip therefore counts twice. This matches the
// historical summaries and is kept deliberately.
func Daily(trades []models.Trade, day time.Time) Stats {
	var s Stats

	for i := range trades {
		t := &trades[i]
		if models.SameDay(t.CreatedAt, day) {
			s.TotalTrades++
		}

		pl, sold := daySellPL(t, day)
		if !sold {
			continue
		}
		s.TotalTrades++
		if pl >= 0 {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
		s.TotalPL += pl
	}

	if closed := s.WinningTrades + s.LosingTrades; closed > 0 {
		s.WinRate = int(math.Round(float64(s.WinningTrades) / float64(closed) * 100))
	}
	return s
}

// daySellPL sums the realized P/L of a record's sells dated on day. The
// second return is false when the record sold nothing that day.
func daySellPL(t *models.Trade, day time.Time) (float64, bool) {
	var pl float64
	sold := false
	for _, ev := range t.Sells {
		if models.SameDay(ev.Timestamp, day) {
			pl += t.SellProfit(ev)
			sold = true
		}
	}
	return pl, sold
}

// TradeDetail is the per-record breakdown inside a day's realized P/L.
type TradeDetail struct {
	Symbol   string  `json:"symbol"`
	Contract string  `json:"contract"`
	PL       float64 `json:"pl"`
	Notes    string  `json:"notes,omitempty"`
}

// DayPL is a day's realized P/L with per-record detail retained.
type DayPL struct {
	TotalPL       float64       `json:"total_pl"`
	TotalTrades   int           `json:"total_trades"`
	WinningTrades int           `json:"winning_trades"`
	LosingTrades  int           `json:"losing_trades"`
	Details       []TradeDetail `json:"details"`
}

// Action is one buy or sell a record performed on the report day. For
// records that sold, the latest sell is shown; otherwise the buy.
type Action struct {
	Contract   string    `json:"contract"`
	Expiration time.Time `json:"expiration"`
	IsSell     bool      `json:"is_sell"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	PL         float64   `json:"pl,omitempty"`
	PLPercent  float64   `json:"pl_percent,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// SymbolActions groups a day's actions under one underlying symbol.
type SymbolActions struct {
	Symbol  string   `json:"symbol"`
	Actions []Action `json:"actions"`
}

// OpenPosition is an open record annotated for the summary report.
type OpenPosition struct {
	Contract         string    `json:"contract"`
	Expiration       time.Time `json:"expiration"`
	Remaining        int       `json:"remaining"`
	BuyPrice         float64   `json:"buy_price"`
	DaysToExpiration int       `json:"days_to_expiration"`
	Notes            string    `json:"notes,omitempty"`
}

// SymbolPositions groups open positions under one underlying symbol.
type SymbolPositions struct {
	Symbol    string         `json:"symbol"`
	Positions []OpenPosition `json:"positions"`
}

// Report is the structured period summary for one reference day.
type Report struct {
	Day      time.Time         `json:"day"`
	Realized DayPL             `json:"realized"`
	Actions  []SymbolActions   `json:"actions"`
	Open     []SymbolPositions `json:"open"`
}

// Summarize builds the full report for the given day: realized P/L with
// per-record detail, the day's actions grouped by symbol, and all currently
// open positions grouped by symbol with days-to-expiration.
func Summarize(trades []models.Trade, day time.Time) Report {
	r := Report{Day: day}
	r.Realized = realized(trades, day)
	r.Actions = dayActions(trades, day)
	r.Open = openPositions(trades, day)
	return r
}

func realized(trades []models.Trade, day time.Time) DayPL {
	var out DayPL
	for i := range trades {
		t := &trades[i]
		pl, sold := daySellPL(t, day)
		if !sold {
			continue
		}
		out.TotalPL += pl
		out.TotalTrades++
		if pl >= 0 {
			out.WinningTrades++
		} else {
			out.LosingTrades++
		}
		out.Details = append(out.Details, TradeDetail{
			Symbol:   t.Symbol,
			Contract: t.Contract,
			PL:       pl,
			Notes:    t.Notes,
		})
	}
	return out
}

func dayActions(trades []models.Trade, day time.Time) []SymbolActions {
	bySymbol := make(map[string][]Action)
	for i := range trades {
		t := &trades[i]
		if !models.SameDay(t.UpdatedAt, day) {
			continue
		}

		var a Action
		if last := t.LastSell(); t.SoldQuantity > 0 && last != nil {
			a = Action{
				Contract:   t.Contract,
				Expiration: t.Expiration,
				IsSell:     true,
				Quantity:   last.Quantity,
				Price:      last.Price,
				PL:         t.SellProfit(*last),
				PLPercent:  t.SellProfitPercent(*last),
				Notes:      t.Notes,
			}
		} else {
			a = Action{
				Contract:   t.Contract,
				Expiration: t.Expiration,
				Quantity:   t.BuyQuantity,
				Price:      t.BuyPrice,
				Notes:      t.Notes,
			}
		}
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], a)
	}
	return sortedActions(bySymbol)
}

func openPositions(trades []models.Trade, day time.Time) []SymbolPositions {
	bySymbol := make(map[string][]OpenPosition)
	for i := range trades {
		t := &trades[i]
		if !t.IsOpen {
			continue
		}
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], OpenPosition{
			Contract:         t.Contract,
			Expiration:       t.Expiration,
			Remaining:        t.Remaining(),
			BuyPrice:         t.BuyPrice,
			DaysToExpiration: t.DaysToExpiration(day),
			Notes:            t.Notes,
		})
	}

	out := make([]SymbolPositions, 0, len(bySymbol))
	for symbol, positions := range bySymbol {
		out = append(out, SymbolPositions{Symbol: symbol, Positions: positions})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func sortedActions(bySymbol map[string][]Action) []SymbolActions {
	out := make([]SymbolActions, 0, len(bySymbol))
	for symbol, actions := range bySymbol {
		out = append(out, SymbolActions{Symbol: symbol, Actions: actions})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ExpirationLabel renders the urgency tier for a days-to-expiration count.
func ExpirationLabel(days int) string {
	switch {
	case days <= 0:
		return "EXPIRED TODAY"
	case days == 1:
		return "EXPIRES TOMORROW"
	case days <= 3:
		return fmt.Sprintf("EXPIRES IN %d DAYS", days)
	default:
		return fmt.Sprintf("%d days to expiration", days)
	}
}
