package render

import (
	"strings"
	"testing"
	"time"

	"github.com/eddiefleurent/trade_scribe/internal/models"
	"github.com/eddiefleurent/trade_scribe/internal/stats"
)

func sampleTrade() models.Trade {
	return models.Trade{
		ID:          "t-1",
		UserID:      "user-1",
		Symbol:      "AAPL",
		Contract:    "CALL $150",
		Expiration:  time.Date(2027, 5, 17, 0, 0, 0, 0, time.UTC),
		BuyPrice:    3.60,
		BuyQuantity: 5,
		IsOpen:      true,
	}
}

func TestBuyAlertNewPosition(t *testing.T) {
	text := BuyAlert(sampleTrade(), false, 0, 3.60, 5, stats.Stats{TotalTrades: 1})

	for _, want := range []string{"AAPL", "CALL $150", "05/17/2027", "3.6"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected buy alert to contain %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Averaged") {
		t.Errorf("New position must not render as averaged:\n%s", text)
	}
}

func TestBuyAlertMerged(t *testing.T) {
	text := BuyAlert(sampleTrade(), true, 3.0, 4.0, 3, stats.Stats{})
	if !strings.Contains(text, "Position Averaged") {
		t.Errorf("Expected merged buy alert to say so:\n%s", text)
	}
	if !strings.Contains(text, "from $3.00") {
		t.Errorf("Expected previous average price in alert:\n%s", text)
	}
}

func TestSellAlertSignsProfit(t *testing.T) {
	tr := sampleTrade()
	gain := SellAlert(tr, 5.0, 2, 280, 38.9, "solid exit")
	if !strings.Contains(gain, "+$280") {
		t.Errorf("Expected +$280 in alert:\n%s", gain)
	}
	if !strings.Contains(gain, "solid exit") {
		t.Errorf("Expected commentary in alert:\n%s", gain)
	}

	loss := SellAlert(tr, 2.0, 3, -480, -44.4, "")
	if !strings.Contains(loss, "-$480") {
		t.Errorf("Expected -$480 in alert:\n%s", loss)
	}
}

func TestOpenTradesEmpty(t *testing.T) {
	text := OpenTrades(nil)
	if text == "" {
		t.Error("Expected a message for an empty listing")
	}
}

func TestDailySummaryQuietDay(t *testing.T) {
	text := DailySummary(stats.Report{Day: time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)})
	if !strings.Contains(text, "05/11/2026") {
		t.Errorf("Expected summary to carry the report date:\n%s", text)
	}
}

func TestDailySummarySections(t *testing.T) {
	day := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	r := stats.Report{
		Day: day,
		Realized: stats.DayPL{
			TotalPL:       400,
			TotalTrades:   1,
			WinningTrades: 1,
			Details: []stats.TradeDetail{
				{Symbol: "AAPL", Contract: "CALL $150", PL: 400},
			},
		},
		Open: []stats.SymbolPositions{
			{Symbol: "TSLA", Positions: []stats.OpenPosition{
				{Contract: "PUT $200", Expiration: day.AddDate(0, 0, 1), Remaining: 1, BuyPrice: 2.0, DaysToExpiration: 1},
			}},
		},
	}
	text := DailySummary(r)
	for _, want := range []string{"AAPL", "+$400", "TSLA", "EXPIRES TOMORROW"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected summary to contain %q:\n%s", want, text)
		}
	}
}
