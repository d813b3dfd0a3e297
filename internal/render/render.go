// Package render turns ledger and stats output into the text blocks the
// chat surface publishes.
package render

import (
	"fmt"
	"strings"

	"github.com/eddiefleurent/trade_scribe/internal/models"
	"github.com/eddiefleurent/trade_scribe/internal/stats"
	"github.com/eddiefleurent/trade_scribe/internal/util"
)

const dateLayout = "01/02/2006"

// BuyAlert renders the announcement for a recorded buy. A merge shows the
// price averaging and the updated position size.
func BuyAlert(t models.Trade, merged bool, prevAvg, addedPrice float64, addedQty int, day stats.Stats) string {
	var b strings.Builder

	if merged {
		b.WriteString("Position Averaged - BUY\n")
	} else {
		b.WriteString("New Trade Alert - BUY\n")
	}
	fmt.Fprintf(&b, "Stock: %s\n", t.Symbol)
	fmt.Fprintf(&b, "Option: %s | Exp. %s\n", t.Contract, t.Expiration.Format(dateLayout))
	if merged {
		fmt.Fprintf(&b, "Buy Price: New: $%.2f -> Avg: $%.2f (from $%.2f)\n", addedPrice, t.BuyPrice, prevAvg)
		fmt.Fprintf(&b, "Quantity: +%d (Total: %d)\n", addedQty, t.BuyQuantity)
	} else {
		fmt.Fprintf(&b, "Buy Price: $%s\n", util.FormatPrice(addedPrice))
		fmt.Fprintf(&b, "Quantity: %d\n", addedQty)
	}

	b.WriteString(quickStats(day))

	if t.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", t.Notes)
	}
	if merged {
		fmt.Fprintf(&b, "Position Update: Added %d contracts to %s position. Total Position: %d contracts @ $%.2f avg\n",
			addedQty, t.Symbol, t.BuyQuantity, t.BuyPrice)
	}
	return b.String()
}

// quickStats renders the footer shown under buy alerts: the user's trade
// count and record for the day.
func quickStats(day stats.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today: %d trades", day.TotalTrades)
	if day.WinningTrades+day.LosingTrades > 0 {
		fmt.Fprintf(&b, " | %dW/%dL (%d%%)", day.WinningTrades, day.LosingTrades, day.WinRate)
	}
	if day.TotalPL != 0 {
		fmt.Fprintf(&b, " | P/L %s", plAmount(day.TotalPL))
	}
	b.WriteString("\n")
	return b.String()
}

// SellAlert renders the announcement for a recorded sell.
func SellAlert(t models.Trade, price float64, quantity int, profit, pct float64, commentary string) string {
	var b strings.Builder

	b.WriteString("New Trade Alert - SELL\n")
	fmt.Fprintf(&b, "Stock: %s\n", t.Symbol)
	fmt.Fprintf(&b, "Option: %s | Exp. %s\n", t.Contract, t.Expiration.Format(dateLayout))
	fmt.Fprintf(&b, "Buy Price: $%s\n", util.FormatPrice(t.BuyPrice))
	fmt.Fprintf(&b, "Sell Price: $%s\n", util.FormatPrice(price))
	if quantity == t.BuyQuantity {
		fmt.Fprintf(&b, "Quantity: %d\n", quantity)
	} else {
		fmt.Fprintf(&b, "Quantity: %d of %d (%.0f%%)\n",
			quantity, t.BuyQuantity, float64(quantity)/float64(t.BuyQuantity)*100)
	}
	fmt.Fprintf(&b, "Profit/Loss: %s (%s%.2f%%)\n", plAmount(profit), plSign(pct), pct)

	remaining := t.Remaining()
	if t.IsOpen {
		plural := ""
		if remaining > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "Status: PARTIAL SELL - %d contract%s remaining\n", remaining, plural)
	} else {
		b.WriteString("Status: CLOSED - Position fully exited\n")
	}

	if t.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", t.Notes)
	}
	if commentary != "" {
		fmt.Fprintf(&b, "Analysis: %s\n", commentary)
	}
	return b.String()
}

// OpenTrades renders a user's open positions as a numbered list.
func OpenTrades(trades []models.Trade) string {
	if len(trades) == 0 {
		return "You have no open trades."
	}

	var b strings.Builder
	b.WriteString("Your Open Trades\n")
	for i, t := range trades {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, t.Symbol, t.Contract)
		fmt.Fprintf(&b, "   Bought: %s at $%s\n", t.CreatedAt.Format(dateLayout), util.FormatPrice(t.BuyPrice))
		fmt.Fprintf(&b, "   Expiration: %s\n", t.Expiration.Format(dateLayout))
		fmt.Fprintf(&b, "   Quantity: %d/%d\n", t.Remaining(), t.BuyQuantity)
		notes := t.Notes
		if notes == "" {
			notes = "None"
		}
		fmt.Fprintf(&b, "   Notes: %s\n", notes)
	}
	return b.String()
}

// DailySummary renders the scheduled end-of-day report.
func DailySummary(r stats.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Daily Trading Summary - %s\n\n", r.Day.Format(dateLayout))

	b.WriteString("Daily Profit/Loss\n")
	b.WriteString(realizedSection(r.Realized))
	b.WriteString("\n")

	b.WriteString("Today's Trades\n")
	if len(r.Actions) == 0 {
		b.WriteString("No trades were made today.\n")
	} else {
		b.WriteString(actionsSection(r.Actions))
	}
	b.WriteString("\n")

	b.WriteString("Open Positions\n")
	if len(r.Open) == 0 {
		b.WriteString("You have no open positions.\n")
	} else {
		b.WriteString(openSection(r.Open))
	}

	return b.String()
}

func realizedSection(pl stats.DayPL) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total: %s\n", plAmount(pl.TotalPL))
	if pl.TotalTrades == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "Trades: %d (%d winning, %d losing)\n", pl.TotalTrades, pl.WinningTrades, pl.LosingTrades)
	winRate := float64(pl.WinningTrades) / float64(pl.TotalTrades) * 100
	fmt.Fprintf(&b, "Win Rate: %.0f%%\n", winRate)
	for _, d := range pl.Details {
		fmt.Fprintf(&b, "- %s %s: %s\n", d.Symbol, d.Contract, plAmount(d.PL))
		if d.Notes != "" {
			fmt.Fprintf(&b, "  %s\n", d.Notes)
		}
	}
	return b.String()
}

func actionsSection(groups []stats.SymbolActions) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%s\n", g.Symbol)
		for _, a := range g.Actions {
			exp := a.Expiration.Format(dateLayout)
			if a.IsSell {
				fmt.Fprintf(&b, "- SELL %d %s (Exp. %s): $%s -> %s (%s%.2f%%)\n",
					a.Quantity, a.Contract, exp, util.FormatPrice(a.Price),
					plAmount(a.PL), plSign(a.PLPercent), a.PLPercent)
			} else {
				fmt.Fprintf(&b, "- BUY %d %s (Exp. %s): $%s\n",
					a.Quantity, a.Contract, exp, util.FormatPrice(a.Price))
			}
			if a.Notes != "" {
				fmt.Fprintf(&b, "  %s\n", a.Notes)
			}
		}
	}
	return b.String()
}

func openSection(groups []stats.SymbolPositions) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%s\n", g.Symbol)
		for _, p := range g.Positions {
			fmt.Fprintf(&b, "- %d %s @ $%s (Exp. %s)\n",
				p.Remaining, p.Contract, util.FormatPrice(p.BuyPrice), p.Expiration.Format(dateLayout))
			fmt.Fprintf(&b, "  %s\n", stats.ExpirationLabel(p.DaysToExpiration))
			if p.Notes != "" {
				fmt.Fprintf(&b, "  %s\n", p.Notes)
			}
		}
	}
	return b.String()
}

func plSign(v float64) string {
	if v >= 0 {
		return "+"
	}
	return ""
}

// plAmount renders a signed dollar amount: +$280.00 or -$480.00.
func plAmount(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}
